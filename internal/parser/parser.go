// Package parser decodes repository semantic-model documents: the JSON
// description of a repository's controllers, classes, methods and stored
// procedure calls produced by an upstream code analyser.
package parser

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
)

var (
	ErrInvalidJSON        = errors.New("invalid semantic model JSON")
	ErrMissingName        = errors.New("semantic model missing required 'Name' field")
	ErrMissingClassName   = errors.New("class missing required 'ClassName' field")
	ErrMissingMethodName  = errors.New("method missing required 'MethodName' field")
	ErrEmptyStoredProcRef = errors.New("empty stored procedure reference")
)

const defaultReturnType = "void"

type Model struct {
	Name                  string        `json:"Name"`
	Controllers           []Controller  `json:"Controllers"`
	ClassDetails          []ClassDetail `json:"ClassDetails"`
	DependentRepositories []string      `json:"DependentRepositories"`

	SourceFile string `json:"-"`
}

type Controller struct {
	Name         string `json:"Name"`
	HTTPCallType string `json:"HttpCallType"`
}

type ClassDetail struct {
	ClassName        string            `json:"ClassName"`
	FilePath         string            `json:"FilePath"`
	ClassSourceCode  string            `json:"ClassSourceCode"`
	Methods          []MethodDetail    `json:"Methods"`
	Inherits         string            `json:"Inherits"`
	Properties       []VariableType    `json:"Properties"`
	StoredProcedure  []string          `json:"StoredProcedure"`
	ExternalRestCall []ServiceEndpoint `json:"ExternalRestCall"`
}

type MethodDetail struct {
	MethodName         string         `json:"MethodName"`
	MethodSourceCode   string         `json:"MethodSourceCode"`
	MethodArgumentType []VariableType `json:"MethodArgumentType"`
	MethodReturnType   string         `json:"MethodReturnType"`
	LocalVariableTypes []VariableType `json:"LocalVariableTypes"`
	ExternalCalls      []ExternalCall `json:"ExternalCalls"`
}

type VariableType struct {
	Name string `json:"Name"`
	Type string `json:"Type"`
}

type ExternalCall struct {
	DestinationMethod string `json:"DestinationMethod"`
	DestinationClass  string `json:"DestinationClass"`
}

type ServiceEndpoint struct {
	Name     string `json:"Name"`
	Endpoint string `json:"Endpoint"`
}

func ParseFile(path string) (*Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	model, err := Parse(data)
	if err != nil {
		return nil, err
	}
	model.SourceFile = path
	return model, nil
}

// Parse decodes and normalises one semantic model. Controller names lose
// their quotes and methods without a return type default to void.
func Parse(content []byte) (*Model, error) {
	content = bytes.TrimPrefix(content, []byte("\ufeff"))

	var model Model
	if err := json.Unmarshal(content, &model); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidJSON, err)
	}

	model.Name = strings.TrimSpace(model.Name)
	if model.Name == "" {
		return nil, ErrMissingName
	}

	for i := range model.Controllers {
		model.Controllers[i].Name = strings.TrimSpace(strings.ReplaceAll(model.Controllers[i].Name, `"`, ""))
	}

	for i := range model.ClassDetails {
		class := &model.ClassDetails[i]
		class.ClassName = strings.TrimSpace(class.ClassName)
		if class.ClassName == "" {
			return nil, fmt.Errorf("class %d: %w", i, ErrMissingClassName)
		}
		for j := range class.Methods {
			method := &class.Methods[j]
			method.MethodName = strings.TrimSpace(method.MethodName)
			if method.MethodName == "" {
				return nil, fmt.Errorf("class %s method %d: %w", class.ClassName, j, ErrMissingMethodName)
			}
			if strings.TrimSpace(method.MethodReturnType) == "" {
				method.MethodReturnType = defaultReturnType
			}
		}
	}

	return &model, nil
}

// RepositoryName is the graph key for a repository: names are compared
// case-insensitively across semantic models.
func RepositoryName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// StoredProcedureName strips quoting, brackets and any schema or database
// prefix from a stored procedure reference, so "[dbo].[usp_GetOrders]"
// becomes "usp_GetOrders".
func StoredProcedureName(ref string) (string, error) {
	parts := strings.Split(ref, ".")
	name := strings.Trim(parts[len(parts)-1], "[]\"' ")
	if name == "" {
		return "", ErrEmptyStoredProcRef
	}
	return name, nil
}
