package paymentmethod

import "strings"

type Method struct {
	Name string
}

func (m Method) Code() string {
	return m.Name
}

func (m Method) Label() string {
	switch m.Name {
	case "qr":
		return "QR"
	case "":
		return ""
	}
	return strings.ToUpper(m.Name[:1]) + m.Name[1:]
}

// Tender reports whether customers can settle a bill with this method.
func (m Method) Tender() bool {
	return m == Methods.Cash || m == Methods.QR
}

type Enum struct {
	Cash Method
	QR   Method
	None Method
}

var Methods = Enum{
	Cash: Method{Name: "cash"},
	QR:   Method{Name: "qr"},
	None: Method{Name: "none"},
}

var All = []Method{
	Methods.Cash,
	Methods.QR,
	Methods.None,
}

// ByName returns the method for a given name, or nil if not found
func ByName(name string) *Method {
	for _, m := range All {
		if m.Name == name {
			return &m
		}
	}
	return nil
}
