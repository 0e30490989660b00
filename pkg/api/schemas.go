package api

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// Request payloads are validated against JSON Schemas before they are bound
// to structs, so required-field failures surface as MISSING_FIELDS with the
// offending property named, not as a zero value deep in a handler.

const maxBodyBytes = 1 << 20 // 1MB

var schemaSources = map[string]string{
	"projectCreate": `{
		"type": "object",
		"required": ["name"],
		"properties": {
			"name": {"type": "string", "minLength": 1},
			"priority": {"enum": ["low", "medium", "high", "critical"]}
		}
	}`,
	"taskCreate": `{
		"type": "object",
		"required": ["title"],
		"properties": {
			"title": {"type": "string", "minLength": 1},
			"priority": {"enum": ["low", "medium", "high", "critical"]}
		}
	}`,
	"milestoneCreate": `{
		"type": "object",
		"required": ["name", "dueDate"],
		"properties": {
			"name": {"type": "string", "minLength": 1},
			"dueDate": {"type": "string"}
		}
	}`,
	"riskCreate": `{
		"type": "object",
		"required": ["title", "likelihood", "impact"],
		"properties": {
			"title": {"type": "string", "minLength": 1},
			"likelihood": {"type": "integer", "minimum": 1, "maximum": 5},
			"impact": {"type": "integer", "minimum": 1, "maximum": 5}
		}
	}`,
	"stakeholderCreate": `{
		"type": "object",
		"required": ["name"],
		"properties": {"name": {"type": "string", "minLength": 1}}
	}`,
	"discussionCreate": `{
		"type": "object",
		"required": ["title", "body"],
		"properties": {
			"title": {"type": "string", "minLength": 1},
			"body": {"type": "string", "minLength": 1}
		}
	}`,
	"backlogCreate": `{
		"type": "object",
		"required": ["title"],
		"properties": {
			"title": {"type": "string", "minLength": 1},
			"storyPoints": {"type": "integer", "minimum": 0}
		}
	}`,
	"retroCreate": `{
		"type": "object",
		"required": ["name"],
		"properties": {"name": {"type": "string", "minLength": 1}}
	}`,
	"cardCreate": `{
		"type": "object",
		"required": ["text"],
		"properties": {"text": {"type": "string", "minLength": 1}}
	}`,
	"cardMove": `{
		"type": "object",
		"required": ["columnId"],
		"properties": {
			"columnId": {"type": "string", "minLength": 1},
			"position": {"type": "integer", "minimum": 0}
		}
	}`,
	"actionCreate": `{
		"type": "object",
		"required": ["text"],
		"properties": {"text": {"type": "string", "minLength": 1}}
	}`,
	"iterationCreate": `{
		"type": "object",
		"required": ["name", "startDate", "endDate"],
		"properties": {
			"name": {"type": "string", "minLength": 1},
			"startDate": {"type": "string"},
			"endDate": {"type": "string"}
		}
	}`,
	"memberCreate": `{
		"type": "object",
		"required": ["name", "weeklyHours"],
		"properties": {
			"name": {"type": "string", "minLength": 1},
			"weeklyHours": {"type": "number", "minimum": 0}
		}
	}`,
	"availabilitySet": `{
		"type": "object",
		"required": ["memberId", "weekIndex", "availableHours"],
		"properties": {
			"memberId": {"type": "string", "minLength": 1},
			"weekIndex": {"type": "integer", "minimum": 0},
			"availableHours": {"type": "number", "minimum": 0}
		}
	}`,
	"budgetCreate": `{
		"type": "object",
		"required": ["totalBudget"],
		"properties": {"totalBudget": {"type": "number", "minimum": 0}}
	}`,
	"categoryCreate": `{
		"type": "object",
		"required": ["name"],
		"properties": {
			"name": {"type": "string", "minLength": 1},
			"allocatedAmount": {"type": "number", "minimum": 0}
		}
	}`,
	"spendingCreate": `{
		"type": "object",
		"required": ["amount"],
		"properties": {"amount": {"type": "number", "minimum": 0}}
	}`,
	"grantUpsert": `{
		"type": "object",
		"required": ["userId", "module", "level"],
		"properties": {
			"userId": {"type": "string", "minLength": 1},
			"module": {"type": "string", "minLength": 1},
			"level": {"enum": ["read", "write"]}
		}
	}`,
}

var schemas = compileSchemas()

func compileSchemas() map[string]*jsonschema.Schema {
	compiled := make(map[string]*jsonschema.Schema, len(schemaSources))
	for name, src := range schemaSources {
		c := jsonschema.NewCompiler()
		url := "traction://schemas/" + name + ".json"
		if err := c.AddResource(url, strings.NewReader(src)); err != nil {
			panic(fmt.Sprintf("schema %s: %v", name, err))
		}
		compiled[name] = c.MustCompile(url)
	}
	return compiled
}

// decodeValid reads the request body, validates it against the named schema
// and binds it into dst. The returned error message is safe to show to the
// client.
func decodeValid(r *http.Request, w http.ResponseWriter, schemaName string, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	raw, err := io.ReadAll(r.Body)
	if err != nil {
		return fmt.Errorf("reading request body: %w", err)
	}

	var generic any
	if err := json.Unmarshal(raw, &generic); err != nil {
		return fmt.Errorf("invalid JSON body")
	}
	if err := schemas[schemaName].Validate(generic); err != nil {
		if verr, ok := err.(*jsonschema.ValidationError); ok {
			return fmt.Errorf("%s", validationMessage(verr))
		}
		return err
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("request body does not match expected shape")
	}
	return nil
}

// decodeJSON binds a body without schema validation. Used for partial-patch
// updates where every field is optional.
func decodeJSON(r *http.Request, w http.ResponseWriter, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return fmt.Errorf("invalid JSON body")
	}
	return nil
}

// validationMessage flattens the deepest cause of a validation error into a
// single line.
func validationMessage(err *jsonschema.ValidationError) string {
	for len(err.Causes) > 0 {
		err = err.Causes[0]
	}
	loc := strings.TrimPrefix(err.InstanceLocation, "/")
	if loc == "" {
		return err.Message
	}
	return fmt.Sprintf("%s: %s", loc, err.Message)
}
