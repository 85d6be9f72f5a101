package message

// reasonPhrases is a flat lookup table indexed by status code: a fixed-size
// array beats a map here because the set of codes is small and known, and
// it avoids a hash on every response.
var reasonPhrases = [600]string{
	100: "Continue",
	101: "Switching Protocols",

	200: "OK",
	201: "Created",
	202: "Accepted",
	204: "No Content",

	301: "Moved Permanently",
	302: "Found",
	303: "See Other",
	304: "Not Modified",
	307: "Temporary Redirect",
	308: "Permanent Redirect",

	400: "Bad Request",
	401: "Unauthorized",
	403: "Forbidden",
	404: "Not Found",
	405: "Method Not Allowed",
	408: "Request Timeout",
	409: "Conflict",
	411: "Length Required",
	413: "Payload Too Large",
	415: "Unsupported Media Type",
	429: "Too Many Requests",
	431: "Request Header Fields Too Large",

	500: "Internal Server Error",
	501: "Not Implemented",
	502: "Bad Gateway",
	503: "Service Unavailable",
	504: "Gateway Timeout",
}

// ReasonPhrase returns the canonical reason phrase for a status code,
// falling back to "Unknown Status" so the writer never emits an empty
// status line for a code the application invented.
func ReasonPhrase(code int) string {
	if code >= 0 && code < len(reasonPhrases) {
		if p := reasonPhrases[code]; p != "" {
			return p
		}
	}
	return "Unknown Status"
}
