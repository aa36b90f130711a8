// Package flash carries user visible notices produced by workflow actions.
package flash

import (
	"sort"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

type Type string

const (
	TypeInfo    Type = "info"
	TypeNotice  Type = "notice"
	TypeWarning Type = "warning"
	TypeError   Type = "error"
)

// Message references a translation key and the variables substituted into it.
type Message struct {
	Type Type              `json:"type"`
	Key  string            `json:"key"`
	Vars map[string]string `json:"vars,omitempty"`
}

func Notice(key string, vars map[string]string) Message {
	return Message{Type: TypeNotice, Key: key, Vars: vars}
}

func Error(key string, vars map[string]string) Message {
	return Message{Type: TypeError, Key: key, Vars: vars}
}

func Info(key string, vars map[string]string) Message {
	return Message{Type: TypeInfo, Key: key, Vars: vars}
}

// Message keys
const (
	KeyItemCreated          = "sms.notice.created"
	KeyItemUpdated          = "sms.notice.updated"
	KeyItemDeleted          = "sms.notice.deleted"
	KeyBatchDeleted         = "sms.notice.batch_deleted"
	KeyItemUnlocked         = "sms.notice.unlocked"
	KeyNotFound             = "sms.error.notfound"
	KeyLocked               = "sms.error.locked"
	KeyAccessDenied         = "sms.error.accessdenied"
	KeyPublishDenied        = "sms.warning.publish_denied"
	KeyInvalidBatchIDs      = "sms.error.invalid_ids"
	KeyFilterReset          = "sms.info.filter_reset"
	KeyBroadcastCompleted   = "sms.notice.broadcast_completed"
	KeyValidationFailed     = "sms.error.validation"
	KeyMessageSent          = "sms.notice.sent"
	KeyMessageSendFailed    = "sms.error.send_failed"
	KeyContactNotReachable  = "sms.error.contact_unreachable"
	KeyMessageNotPublished  = "sms.error.not_published"
	KeyChannelNotRegistered = "sms.error.channel_not_registered"
)

var english = map[string]string{
	KeyItemCreated:          "{name} has been created!",
	KeyItemUpdated:          "{name} has been updated!",
	KeyItemDeleted:          "{name} has been deleted!",
	KeyBatchDeleted:         "{count} item(s) deleted.",
	KeyItemUnlocked:         "{name} has been unlocked.",
	KeyNotFound:             "Text message with ID {id} not found.",
	KeyLocked:               "{name} is currently checked out by {lockedBy}.",
	KeyAccessDenied:         "You do not have access to {name}.",
	KeyPublishDenied:        "You are not allowed to change the published state of {name}.",
	KeyInvalidBatchIDs:      "The selection could not be read.",
	KeyFilterReset:          "Filters were reset.",
	KeyBroadcastCompleted:   "{sent} message(s) sent, {failed} failed.",
	KeyValidationFailed:     "Please correct the errors below.",
	KeyMessageSent:          "Text message sent to {contact}.",
	KeyMessageSendFailed:    "Text message could not be sent: {reason}",
	KeyContactNotReachable:  "Contact {contact} cannot receive text messages.",
	KeyMessageNotPublished:  "{name} is not published.",
	KeyChannelNotRegistered: "Channel {channel} is not registered.",
}

// Translator renders messages from a catalog, replacing {var} placeholders.
type Translator struct {
	printer *message.Printer
}

// NewTranslator builds a translator over the built-in English catalog plus
// any extra messages for tag.
func NewTranslator(tag language.Tag, extra map[string]string) (*Translator, error) {
	b := catalog.NewBuilder(catalog.Fallback(language.English))
	for key, msg := range english {
		if err := b.SetString(language.English, key, msg); err != nil {
			return nil, err
		}
	}
	for key, msg := range extra {
		if err := b.SetString(tag, key, msg); err != nil {
			return nil, err
		}
	}
	return &Translator{printer: message.NewPrinter(tag, message.Catalog(b))}, nil
}

func (t *Translator) Translate(m Message) string {
	text := t.printer.Sprintf(m.Key)
	if len(m.Vars) == 0 {
		return text
	}

	names := make([]string, 0, len(m.Vars))
	for name := range m.Vars {
		names = append(names, name)
	}
	sort.Strings(names)

	pairs := make([]string, 0, len(names)*2)
	for _, name := range names {
		pairs = append(pairs, "{"+name+"}", m.Vars[name])
	}
	return strings.NewReplacer(pairs...).Replace(text)
}
