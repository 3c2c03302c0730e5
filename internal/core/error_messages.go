package core

// # Error Codes Reference
//
// This file maps technical errors to user-friendly messages with codes for
// support reference. Codes are grouped by category:
//
// # Configuration Errors (CFG001-CFG099)
//
//	CFG001 - Input file missing: No input file was given
//	         Action: Pass --inputFile or set IMPORT_INPUT_FILE
//	         Patterns: "the input file must be specified"
//
//	CFG002 - Key column missing: The header row lacks the translation key column
//	         Action: Check --translationKeyColumnName against the CSV header
//	         Patterns: "no translation key column defined"
//
//	CFG003 - Unknown encoding: The input encoding is not supported
//	         Action: Use utf-8, latin1 or windows-1252
//	         Patterns: "unknown input encoding"
//
//	CFG004 - Unknown format: The document format is not supported
//	         Action: Use js, json, yaml or toml
//	         Patterns: "unknown document format"
//
//	CFG005 - Invalid column names: The locale column mapping is not valid JSON
//	         Action: Pass a JSON object such as {"en":"ENGLISH"}
//	         Patterns: "locale column names"
//
//	CFG006 - Invalid locale: A header or alias does not name a plain locale directory
//	         Action: Rename the column to a locale code such as "fr" or "pt-br"
//	         Patterns: "invalid locale name"
//
// # Parse Errors (PARSE001-PARSE099)
//
//	PARSE001 - No literal: An existing translations file has no {...} block
//	           Action: Fix or delete the file named in the log
//	           Patterns: "translation literal not found"
//
//	PARSE002 - Invalid literal: An existing translations file cannot be parsed
//	           Action: Fix the syntax error in the file named in the log
//	           Patterns: "invalid literal"
//
//	PARSE003 - Not an object: A translations document is not an object
//	           Action: The default export must be an object literal
//	           Patterns: "document root is not an object"
//
// # Key Errors (KEY001-KEY099)
//
//	KEY001 - Key conflict: A key is both a value and a parent of other keys
//	         Action: Rename one of the conflicting keys in the export
//	         Patterns: "key conflicts with an existing entry"
//
//	KEY002 - Sparse array: Numbered keys skip an index
//	         Action: Number list entries 0, 1, 2 without gaps
//	         Patterns: "array indices are not contiguous"
//
// # File Errors (IO001-IO099)
//
//	IO001 - Not found: A file or directory does not exist
//	IO002 - Permission denied: The file cannot be read or written
//	IO003 - Disk full: No space left on the output device
//
// # Upload Errors (UPL001-UPL099)
//
//	UPL001 - Busy: Another import is writing the same output
//	UPL002 - Too large: The uploaded file exceeds the size limit
//	UPL003 - No file: The request carried no file
//	UPL004 - Cancelled: The import was cancelled
//
// # Other
//
//	HIST001 - History disabled: No database is configured
//	LOC001  - Unknown locale: No such locale directory
//	ERR000  - Unexpected error (fallback)

import (
	"fmt"
	"strings"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
}

// errorPattern defines a pattern to match and its corresponding user message.
type errorPattern struct {
	pattern string
	msg     UserMessage
}

// errorPatterns maps technical error patterns (case-insensitive) to user
// messages. The first matching pattern wins, so specific patterns come
// before general ones.
var errorPatterns = []errorPattern{
	// Configuration
	{
		pattern: "the input file must be specified",
		msg: UserMessage{
			Message: "No input file was given",
			Action:  "Pass --inputFile or set IMPORT_INPUT_FILE",
			Code:    "CFG001",
		},
	},
	{
		pattern: "no translation key column defined",
		msg: UserMessage{
			Message: "The CSV header has no translation key column",
			Action:  "Check --translationKeyColumnName against the CSV header",
			Code:    "CFG002",
		},
	},
	{
		pattern: "unknown input encoding",
		msg: UserMessage{
			Message: "The input encoding is not supported",
			Action:  "Use utf-8, latin1 or windows-1252",
			Code:    "CFG003",
		},
	},
	{
		pattern: "unknown document format",
		msg: UserMessage{
			Message: "The document format is not supported",
			Action:  "Use js, json, yaml or toml",
			Code:    "CFG004",
		},
	},
	{
		pattern: "locale column names",
		msg: UserMessage{
			Message: "The locale column mapping is not valid",
			Action:  `Pass a JSON object such as {"en":"ENGLISH"}`,
			Code:    "CFG005",
		},
	},
	{
		pattern: "invalid locale name",
		msg: UserMessage{
			Message: "A column does not name a valid locale",
			Action:  `Rename the column to a locale code such as "fr" or "pt-br"`,
			Code:    "CFG006",
		},
	},

	// Parse
	{
		pattern: "translation literal not found",
		msg: UserMessage{
			Message: "An existing translations file has no object literal",
			Action:  "Fix or delete the file named in the log, then retry",
			Code:    "PARSE001",
		},
	},
	{
		pattern: "invalid literal",
		msg: UserMessage{
			Message: "An existing translations file cannot be parsed",
			Action:  "Fix the syntax error in the file named in the log, then retry",
			Code:    "PARSE002",
		},
	},
	{
		pattern: "document root is not an object",
		msg: UserMessage{
			Message: "A translations document is not an object",
			Action:  "The default export must be an object literal",
			Code:    "PARSE003",
		},
	},

	// Keys
	{
		pattern: "key conflicts with an existing entry",
		msg: UserMessage{
			Message: "A translation key is both a value and a parent of other keys",
			Action:  "Rename one of the conflicting keys in the export",
			Code:    "KEY001",
		},
	},
	{
		pattern: "array indices are not contiguous",
		msg: UserMessage{
			Message: "Numbered translation keys skip an index",
			Action:  "Number list entries 0, 1, 2 without gaps",
			Code:    "KEY002",
		},
	},

	// Upload (before file errors: "http: no such file" would match IO001)
	{
		pattern: "another import is in progress",
		msg: UserMessage{
			Message: "Another import is writing the same translations",
			Action:  "Wait for it to finish and try again",
			Code:    "UPL001",
		},
	},
	{
		pattern: "request body too large",
		msg: UserMessage{
			Message: "The uploaded file is too large",
			Action:  "Split the export or raise SERVER_MAX_UPLOAD_SIZE",
			Code:    "UPL002",
		},
	},
	{
		pattern: "http: no such file",
		msg: UserMessage{
			Message: "No file was uploaded",
			Action:  "Attach the CSV export as the \"file\" field",
			Code:    "UPL003",
		},
	},
	{
		pattern: "isn't multipart/form-data",
		msg: UserMessage{
			Message: "No file was uploaded",
			Action:  "Send the CSV export as multipart form data in the \"file\" field",
			Code:    "UPL003",
		},
	},
	{
		pattern: "context canceled",
		msg: UserMessage{
			Message: "The import was cancelled",
			Action:  "Start the import again",
			Code:    "UPL004",
		},
	},

	// Files
	{
		pattern: "no such file or directory",
		msg: UserMessage{
			Message: "A file or directory does not exist",
			Action:  "Check the paths in your configuration",
			Code:    "IO001",
		},
	},
	{
		pattern: "permission denied",
		msg: UserMessage{
			Message: "A file cannot be read or written",
			Action:  "Check file permissions on the input file and output directory",
			Code:    "IO002",
		},
	},
	{
		pattern: "no space left",
		msg: UserMessage{
			Message: "The output disk is full",
			Action:  "Free some disk space and try again",
			Code:    "IO003",
		},
	},

	// Other
	{
		pattern: "history is not enabled",
		msg: UserMessage{
			Message: "Import history is not available",
			Action:  "Set DATABASE_URL to record import history",
			Code:    "HIST001",
		},
	},
	{
		pattern: "locale not found",
		msg: UserMessage{
			Message: "No such locale",
			Action:  "Check the locale list for available locales",
			Code:    "LOC001",
		},
	},
}

// defaultMessage is returned when no pattern matches (ERR000).
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Check the log for details",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message. If no
// pattern matches, a generic fallback message with code ERR000 is returned.
//
// Example:
//
//	msg := MapError(err)
//	// msg.Code == "CFG002" for a header row without SYSTEM_KEY
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	errStr := strings.ToLower(err.Error())

	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}

	return defaultMessage
}

// FormatUserError creates a formatted error string for display.
// The format is: "Message (Code: XXX). Action"
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err matches a known pattern rather than the
// ERR000 fallback.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}
