package domain

// DocumentKind selects the printable order document
type DocumentKind string

const (
	DocumentTicket   DocumentKind = "ticket"
	DocumentDelivery DocumentKind = "delivery"
)

// Valid reports whether k is a known document kind
func (k DocumentKind) Valid() bool {
	return k == DocumentTicket || k == DocumentDelivery
}

// Title is the heading printed on the document
func (k DocumentKind) Title() string {
	if k == DocumentDelivery {
		return "NOTA DE ENTREGA"
	}
	return "TICKET DE COMPRA"
}

// OrderDocument is a rendered PDF ready to download
type OrderDocument struct {
	Filename string
	Content  []byte
}
