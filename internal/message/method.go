// Package message holds the Request and Response data model: the surface
// handlers see and the response variant the writer drains to a socket.
package message

import "bytes"

// Method is one of the seven HTTP/1.1 verbs this server understands.
// Anything else fails parsing: there is no "unknown but allowed" method.
type Method uint8

const (
	MethodUnknown Method = iota
	MethodGET
	MethodPOST
	MethodPUT
	MethodDELETE
	MethodPATCH
	MethodHEAD
	MethodOPTIONS
)

var methodNames = [...]string{
	MethodUnknown: "",
	MethodGET:     "GET",
	MethodPOST:    "POST",
	MethodPUT:     "PUT",
	MethodDELETE:  "DELETE",
	MethodPATCH:   "PATCH",
	MethodHEAD:    "HEAD",
	MethodOPTIONS: "OPTIONS",
}

func (m Method) String() string {
	if int(m) < len(methodNames) {
		return methodNames[m]
	}
	return ""
}

// ParseMethod is an exact match against the seven supported tokens. No
// prefix or case-insensitive matching: a method token is uppercase wire
// format or it is rejected.
func ParseMethod(tok []byte) (Method, bool) {
	switch {
	case bytes.Equal(tok, []byte("GET")):
		return MethodGET, true
	case bytes.Equal(tok, []byte("POST")):
		return MethodPOST, true
	case bytes.Equal(tok, []byte("PUT")):
		return MethodPUT, true
	case bytes.Equal(tok, []byte("DELETE")):
		return MethodDELETE, true
	case bytes.Equal(tok, []byte("PATCH")):
		return MethodPATCH, true
	case bytes.Equal(tok, []byte("HEAD")):
		return MethodHEAD, true
	case bytes.Equal(tok, []byte("OPTIONS")):
		return MethodOPTIONS, true
	default:
		return MethodUnknown, false
	}
}
