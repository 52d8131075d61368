// Package schema derives JSON Schemas for tool arguments from Go structs and
// validates raw tool arguments against them.
//
// Tool inputs are plain structs; the json tag names the property and the
// jsonschema tag adds constraints:
//
//	type sendPhotoInput struct {
//	    ChatID   telegram.ChatID `json:"chatId" jsonschema:"required,description=Target chat"`
//	    PhotoURL string          `json:"photoUrl" jsonschema:"required"`
//	    Caption  string          `json:"caption,omitempty"`
//	}
//
// Recognized jsonschema keys are required, description=, minimum=, maximum=
// and default=. Values may not contain commas.
//
// Types whose wire shape is not obvious from their Go kind, such as a chat id
// that may arrive as a number or a string, implement [Provider] and describe
// themselves.
package schema
