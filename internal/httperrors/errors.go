// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package httperrors turns transport failures into short troubleshooting hints.
package httperrors

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"regexp"
	"strings"
	"syscall"
)

var reServerStatus = regexp.MustCompile(`(?i)\bhttp 5\d\d\b`)

// Hint returns troubleshooting advice for a network or server failure, or ""
// when err does not look like one.
func Hint(err error) string {
	if err == nil {
		return ""
	}
	host := hostOf(err)

	switch {
	case isTimeoutError(err):
		return bullets(fmt.Sprintf("Connection to %s timed out. This could mean:", host),
			"Slow internet connection",
			"The API is under heavy load",
			"api.timeout is set too low")
	case isDNSError(err):
		return bullets(fmt.Sprintf("Cannot resolve %s. Please check:", host),
			"Your internet connection is working",
			"DNS settings are correct",
			"api.url points at the right host")
	case isConnectionRefusedError(err):
		return bullets(fmt.Sprintf("%s refused the connection. This could mean:", host),
			"The service is temporarily down",
			"A firewall is blocking the connection",
			"Wrong server address or port in api.url")
	case isSSLError(err):
		return bullets(fmt.Sprintf("Secure connection to %s failed. Try:", host),
			"Check your system date and time",
			"Verify network proxy settings")
	case isServerError(err.Error()):
		return bullets("The onOffice API encountered an internal error.",
			"This is not a problem with your setup",
			"Please try again in a few minutes")
	}
	return ""
}

func bullets(heading string, items ...string) string {
	var b strings.Builder
	b.WriteString(heading)
	for _, item := range items {
		b.WriteString("\n  • ")
		b.WriteString(item)
	}
	return b.String()
}

// hostOf extracts the request host from a *url.Error chain.
func hostOf(err error) string {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return ExtractHostFromURL(urlErr.URL)
	}
	return "the API server"
}

// isTimeoutError checks if the error is a timeout error.
func isTimeoutError(err error) bool {
	errStr := strings.ToLower(err.Error())
	if strings.Contains(errStr, "timeout") ||
		strings.Contains(errStr, "deadline exceeded") {
		return true
	}

	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// isDNSError checks if the error is a DNS resolution error.
func isDNSError(err error) bool {
	var dnsErr *net.DNSError
	return errors.As(err, &dnsErr)
}

// isConnectionRefusedError checks if the error is a connection refused error.
func isConnectionRefusedError(err error) bool {
	var opErr *net.OpError
	if errors.As(err, &opErr) && errors.Is(opErr.Err, syscall.ECONNREFUSED) {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "connection refused")
}

// isSSLError checks if the error is an SSL/TLS error.
func isSSLError(err error) bool {
	errStr := strings.ToLower(err.Error())
	return strings.Contains(errStr, "tls") ||
		strings.Contains(errStr, "x509") ||
		strings.Contains(errStr, "certificate") ||
		strings.Contains(errStr, "handshake")
}

// isServerError checks if the error indicates a server-side problem (5xx errors).
func isServerError(errStr string) bool {
	lower := strings.ToLower(errStr)
	return reServerStatus.MatchString(errStr) ||
		strings.Contains(lower, "internal server error") ||
		strings.Contains(lower, "bad gateway") ||
		strings.Contains(lower, "service unavailable") ||
		strings.Contains(lower, "gateway timeout")
}

// ExtractHostFromURL extracts the hostname from a URL for error messages.
func ExtractHostFromURL(urlStr string) string {
	u, err := url.Parse(urlStr)
	if err != nil || u.Host == "" {
		return "server"
	}
	return u.Host
}
