package core

type FlashKind string

const (
	FlashSuccess FlashKind = "SuccessMessage"
	FlashError   FlashKind = "ErrorMessage"
)

// Flash is a one-line message shown on the next page the user lands on.
type Flash struct {
	Kind    FlashKind `json:"kind"`
	Message string    `json:"message"`
}

func SuccessFlash(msg string) Flash { return Flash{Kind: FlashSuccess, Message: msg} }
func ErrorFlash(msg string) Flash   { return Flash{Kind: FlashError, Message: msg} }

func (f Flash) IsZero() bool { return f.Message == "" }
