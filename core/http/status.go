package http

// Status codes emitted by the server
const (
	StatusOK                  = 200
	StatusBadRequest          = 400
	StatusNotFound            = 404
	StatusInternalServerError = 500
	StatusNotImplemented      = 501
)

// StatusText returns the reason phrase for the given code
func StatusText(code int) string {
	switch code {
	case StatusOK:
		return "OK"
	case StatusBadRequest:
		return "Bad Request"
	case StatusNotFound:
		return "Not Found"
	case StatusInternalServerError:
		return "Internal Server Error"
	case StatusNotImplemented:
		return "Not Implemented"
	default:
		return "Unknown"
	}
}

// appendInt appends a non-negative integer in decimal
func appendInt(b []byte, i int) []byte {
	if i == 0 {
		return append(b, '0')
	}

	if i < 0 {
		b = append(b, '-')
		i = -i
	}

	var digits [20]byte
	n := 0
	for i > 0 {
		digits[n] = byte('0' + i%10)
		i /= 10
		n++
	}

	for n > 0 {
		n--
		b = append(b, digits[n])
	}

	return b
}

const hexDigits = "0123456789abcdef"

// appendHex appends a non-negative integer in lowercase hexadecimal
func appendHex(b []byte, i int) []byte {
	if i == 0 {
		return append(b, '0')
	}

	var digits [16]byte
	n := 0
	for i > 0 {
		digits[n] = hexDigits[i&0xf]
		i >>= 4
		n++
	}

	for n > 0 {
		n--
		b = append(b, digits[n])
	}

	return b
}
