package upstream

import (
	"fmt"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
)

// GenericOrderMessage is shown when an upstream error body carries no usable
// message in any of the known shapes.
const GenericOrderMessage = "Đặt hàng thất bại. Vui lòng thử lại sau."

// APIError is a non-2xx response from an upstream service. Message is the
// best-effort extraction from the body and may be empty.
type APIError struct {
	Status  int
	Path    string
	Message string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("upstream %s: %d: %s", e.Path, e.Status, e.Message)
	}
	return fmt.Sprintf("upstream %s: %d", e.Path, e.Status)
}

// UserMessage converts any error from an upstream call into the string shown
// to the customer: the extracted body message when one exists, otherwise the
// generic fallback. Network failures and unparseable bodies land on the
// fallback too.
func UserMessage(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return GenericOrderMessage
}

// ExtractMessage walks the known error-body shapes in priority order:
// top-level "error", top-level "message", then the same two fields nested
// under "data". The first non-empty string wins; anything unparseable
// yields "".
func ExtractMessage(body []byte) string {
	var topError, topMessage, dataError, dataMessage string

	d := jx.DecodeBytes(body)
	err := d.ObjBytes(func(d *jx.Decoder, key []byte) error {
		switch string(key) {
		case "error":
			if d.Next() == jx.String {
				s, err := d.Str()
				if err != nil {
					return err
				}
				topError = s
				return nil
			}
			return d.Skip()
		case "message":
			if d.Next() == jx.String {
				s, err := d.Str()
				if err != nil {
					return err
				}
				topMessage = s
				return nil
			}
			return d.Skip()
		case "data":
			if d.Next() != jx.Object {
				return d.Skip()
			}
			return d.ObjBytes(func(d *jx.Decoder, key []byte) error {
				switch string(key) {
				case "error":
					if d.Next() == jx.String {
						s, err := d.Str()
						if err != nil {
							return err
						}
						dataError = s
						return nil
					}
				case "message":
					if d.Next() == jx.String {
						s, err := d.Str()
						if err != nil {
							return err
						}
						dataMessage = s
						return nil
					}
				}
				return d.Skip()
			})
		default:
			return d.Skip()
		}
	})
	if err != nil {
		return ""
	}

	for _, s := range []string{topError, topMessage, dataError, dataMessage} {
		if s != "" {
			return s
		}
	}
	return ""
}
