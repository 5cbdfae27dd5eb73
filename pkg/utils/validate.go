package utils

import (
	"net/url"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/pkg/errors"
)

var (
	ErrURLRequired   = errors.New("url is required")
	ErrURLTooLong    = errors.New("url is too long")
	ErrURLInvalid    = errors.New("url is invalid")
	ErrNameEmpty     = errors.New("name is empty")
	ErrNameTooLong   = errors.New("name is too long")
	allowedURLScheme = map[string]struct{}{"http": {}, "https": {}, "ftp": {}, "ftps": {}}
)

// ValidateOriginalURL 校验原始链接：必须带 scheme 与 host，且不超过 maxLen
func ValidateOriginalURL(rawURL string, maxLen int) error {
	if rawURL == "" {
		return ErrURLRequired
	}
	if utf8.RuneCountInString(rawURL) > maxLen {
		return ErrURLTooLong
	}
	if ContainsWhitespace(rawURL) {
		return ErrURLInvalid
	}

	u, err := url.ParseRequestURI(rawURL)
	if err != nil {
		return errors.Wrap(ErrURLInvalid, err.Error())
	}
	if _, ok := allowedURLScheme[strings.ToLower(u.Scheme)]; !ok {
		return ErrURLInvalid
	}
	if u.Hostname() == "" {
		return ErrURLInvalid
	}
	return nil
}

// NormalizeGroupName 去掉首尾空白后校验长度（按字符计）
func NormalizeGroupName(name string, maxLen int) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", ErrNameEmpty
	}
	if utf8.RuneCountInString(name) > maxLen {
		return "", ErrNameTooLong
	}
	return name, nil
}

func ContainsWhitespace(s string) bool {
	for _, r := range s {
		if unicode.IsSpace(r) {
			return true
		}
	}
	return false
}
