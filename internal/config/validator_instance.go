package config

import (
	"net"
	"net/url"
	"reflect"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validatorOnce sync.Once
	validateInst  *validator.Validate

	paramPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)
)

// validatorInstance configures and returns the shared validator instance used across the config package.
func validatorInstance() *validator.Validate {
	validatorOnce.Do(func() {
		v := validator.New()

		v.RegisterTagNameFunc(func(field reflect.StructField) string {
			name := strings.SplitN(field.Tag.Get("mapstructure"), ",", 2)[0]
			if name == "" || name == "-" {
				return field.Name
			}
			return name
		})

		_ = v.RegisterValidation("web_url", func(fl validator.FieldLevel) bool {
			return isWebURL(fl.Field().String())
		})

		_ = v.RegisterValidation("listen_addr", func(fl validator.FieldLevel) bool {
			return isListenAddr(fl.Field().String())
		})

		_ = v.RegisterValidation("query_param", func(fl validator.FieldLevel) bool {
			return paramPattern.MatchString(fl.Field().String())
		})

		_ = v.RegisterValidation("file_path", func(fl validator.FieldLevel) bool {
			path := fl.Field().String()
			if path == "" {
				return true // Allow empty if not required
			}
			return isValidFilePath(path)
		})

		validateInst = v
	})

	return validateInst
}

// GetValidator returns a configured validator instance for use outside the config package.
func GetValidator() *validator.Validate {
	return validatorInstance()
}

// isWebURL accepts absolute http(s) URLs with a host. Empty strings pass so the
// tag can be combined with required.
func isWebURL(raw string) bool {
	if raw == "" {
		return true
	}
	if strings.TrimSpace(raw) != raw {
		return false
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		return false
	}
	scheme := strings.ToLower(parsed.Scheme)
	return (scheme == "http" || scheme == "https") && parsed.Host != ""
}

// isListenAddr accepts host:port and :port forms.
func isListenAddr(addr string) bool {
	_, port, err := net.SplitHostPort(addr)
	if err != nil {
		return false
	}
	n, err := strconv.Atoi(port)
	return err == nil && n >= 0 && n <= 65535
}

// isValidFilePath performs syntactic validation of file paths without filesystem access.
func isValidFilePath(path string) bool {
	if path == "" {
		return false
	}

	if strings.Contains(path, "\x00") {
		return false
	}

	if path == ":memory:" {
		return true
	}

	if strings.HasPrefix(path, "~/") {
		path = path[1:]
	}

	if strings.HasPrefix(path, "/") {
		return !strings.Contains(path, "/../") && !strings.HasSuffix(path, "/..")
	}

	return strings.HasPrefix(path, "./") || strings.HasPrefix(path, "../")
}
