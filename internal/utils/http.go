package utils

import (
	"net/http"
	"strconv"
	"strings"
)

// ReasonPhrase returns the status text from the response line ("200 OK" -> "OK"),
// falling back to the canonical text when the server sent none.
func ReasonPhrase(resp *http.Response) string {
	text := strings.TrimSpace(strings.TrimPrefix(resp.Status, strconv.Itoa(resp.StatusCode)))
	if text == "" {
		return http.StatusText(resp.StatusCode)
	}
	return text
}
