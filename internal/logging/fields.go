package logging

import "log/slog"

// Attribute keys used across components so log queries stay uniform.
const (
	FieldService   = "service"
	FieldRequestID = "request_id"
	FieldSource    = "source"
	FieldFormat    = "format"
	FieldUserID    = "user_id"
	FieldIP        = "ip"
	FieldStatus    = "status"
	FieldError     = "error"
	FieldEventType = "event_type"
)

func Service(name string) slog.Attr { return slog.String(FieldService, name) }

// Source is the webhook source named in the request.
func Source(name string) slog.Attr { return slog.String(FieldSource, name) }

// Format is the destination format named in the request.
func Format(name string) slog.Attr { return slog.String(FieldFormat, name) }

func UserID(id string) slog.Attr { return slog.String(FieldUserID, id) }

func IP(ip string) slog.Attr { return slog.String(FieldIP, ip) }

func Status(code int) slog.Attr { return slog.Int(FieldStatus, code) }

// EventType is a provider event type such as checkout.session.completed.
func EventType(t string) slog.Attr { return slog.String(FieldEventType, t) }

// Error renders err as a string attribute; nil renders empty.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(FieldError, "")
	}
	return slog.String(FieldError, err.Error())
}
