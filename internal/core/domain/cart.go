package domain

// CartLine holds a snapshot of the product's name and price taken when it
// was first added, so later catalog changes never leak into the cart.
type CartLine struct {
	ProductID ProductID
	Name      string
	Price     Amount
	Quantity  int
}

func (l *CartLine) Subtotal() Amount {
	return l.Price.Multiply(l.Quantity)
}

// Cart keeps at most one line per product, in first-added order.
// Quantity is always >= 1.
type Cart struct {
	Lines []CartLine
}

func NewCart() *Cart {
	return &Cart{Lines: []CartLine{}}
}

func (c *Cart) indexOf(productID ProductID) int {
	for i := range c.Lines {
		if c.Lines[i].ProductID == productID {
			return i
		}
	}
	return -1
}

// AddItem appends a new line with quantity 1, or increments the existing
// line in place. Name and price of an existing line are never overwritten.
func (c *Cart) AddItem(productID ProductID, name string, price Amount) CartLine {
	if i := c.indexOf(productID); i >= 0 {
		c.Lines[i].Quantity++
		return c.Lines[i]
	}

	line := CartLine{
		ProductID: productID,
		Name:      name,
		Price:     price,
		Quantity:  1,
	}
	c.Lines = append(c.Lines, line)
	return line
}

// RemoveItem drops the whole line for productID. It reports whether a line
// existed; removing an absent id leaves the cart untouched.
func (c *Cart) RemoveItem(productID ProductID) bool {
	i := c.indexOf(productID)
	if i < 0 {
		return false
	}

	lines := make([]CartLine, 0, len(c.Lines)-1)
	lines = append(lines, c.Lines[:i]...)
	lines = append(lines, c.Lines[i+1:]...)
	c.Lines = lines
	return true
}

func (c *Cart) Line(productID ProductID) (CartLine, bool) {
	if i := c.indexOf(productID); i >= 0 {
		return c.Lines[i], true
	}
	return CartLine{}, false
}

func (c *Cart) TotalItemCount() int {
	count := 0
	for _, line := range c.Lines {
		count += line.Quantity
	}
	return count
}

func (c *Cart) TotalPrice() Amount {
	total := Amount(0)
	for i := range c.Lines {
		total = total.Add(c.Lines[i].Subtotal())
	}
	return total
}

func (c *Cart) IsEmpty() bool {
	return len(c.Lines) == 0
}
