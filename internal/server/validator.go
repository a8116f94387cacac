package server

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed schemas
var schemaFiles embed.FS

const schemaBaseURL = "https://blackjackgym.dev/schemas/"

// Validator checks inbound messages against the embedded JSON schemas
type Validator struct {
	envelope *jsonschema.Schema
	payloads map[MessageType]*jsonschema.Schema
}

// NewValidator compiles every schema
func NewValidator() (*Validator, error) {
	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020

	compile := func(filename string) (*jsonschema.Schema, error) {
		data, err := schemaFiles.ReadFile("schemas/" + filename)
		if err != nil {
			return nil, fmt.Errorf("failed to read schema %s: %w", filename, err)
		}
		url := schemaBaseURL + filename
		if err := compiler.AddResource(url, bytes.NewReader(data)); err != nil {
			return nil, fmt.Errorf("failed to add schema %s: %w", filename, err)
		}
		schema, err := compiler.Compile(url)
		if err != nil {
			return nil, fmt.Errorf("failed to compile schema %s: %w", filename, err)
		}
		return schema, nil
	}

	envelope, err := compile("message.json")
	if err != nil {
		return nil, err
	}
	v := &Validator{
		envelope: envelope,
		payloads: make(map[MessageType]*jsonschema.Schema),
	}
	for msgType, filename := range map[MessageType]string{
		MessageTypeReset: "reset.json",
		MessageTypeStep:  "step.json",
	} {
		schema, err := compile(filename)
		if err != nil {
			return nil, err
		}
		v.payloads[msgType] = schema
	}
	return v, nil
}

// Decode validates raw and returns the parsed message
func (v *Validator) Decode(raw []byte) (*Message, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}

	if err := v.envelope.Validate(doc); err != nil {
		return nil, fmt.Errorf("message format validation failed: %w", err)
	}

	var msg Message
	if err := json.Unmarshal(raw, &msg); err != nil {
		return nil, fmt.Errorf("invalid message: %w", err)
	}
	if schema, ok := v.payloads[msg.Type]; ok {
		if err := schema.Validate(doc); err != nil {
			return nil, fmt.Errorf("%s validation failed: %w", msg.Type, err)
		}
	}
	return &msg, nil
}
