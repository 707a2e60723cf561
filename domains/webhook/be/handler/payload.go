package handler

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed schema/page_event.schema.json
var pageEventSchema []byte

const pageEventSchemaURL = "page_event.schema.json"

type pageEvent struct {
	Object string      `json:"object"`
	Entry  []pageEntry `json:"entry"`
}

type pageEntry struct {
	ID        string           `json:"id"`
	Messaging []messagingEvent `json:"messaging"`
}

type messagingEvent struct {
	Sender *struct {
		ID string `json:"id"`
	} `json:"sender"`
	Message *struct {
		Text string `json:"text"`
	} `json:"message"`
}

// errSchemaViolation marks a body that is valid JSON but does not match the delivery schema.
var errSchemaViolation = errors.New("payload does not match delivery schema")

// payloadValidator checks webhook bodies against the embedded delivery schema.
type payloadValidator struct {
	schema *jsonschema.Schema
}

func newPayloadValidator() (*payloadValidator, error) {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(pageEventSchemaURL, bytes.NewReader(pageEventSchema)); err != nil {
		return nil, fmt.Errorf("register webhook schema: %w", err)
	}
	schema, err := compiler.Compile(pageEventSchemaURL)
	if err != nil {
		return nil, fmt.Errorf("compile webhook schema: %w", err)
	}
	return &payloadValidator{schema: schema}, nil
}

// decode unmarshals raw into a pageEvent. A body that is not JSON fails outright. A JSON body
// that violates the schema returns errSchemaViolation alongside whatever could be decoded.
func (v *payloadValidator) decode(raw []byte) (pageEvent, error) {
	var document any
	if err := json.Unmarshal(raw, &document); err != nil {
		return pageEvent{}, fmt.Errorf("decode payload: %w", err)
	}

	var event pageEvent
	if err := json.Unmarshal(raw, &event); err != nil {
		return pageEvent{}, fmt.Errorf("%w: %v", errSchemaViolation, err)
	}
	if err := v.schema.Validate(document); err != nil {
		return event, fmt.Errorf("%w: %v", errSchemaViolation, err)
	}
	return event, nil
}
