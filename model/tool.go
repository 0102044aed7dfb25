package model

import (
	"errors"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/jonwraymond/codemode/naming"
)

// ErrInvalidToolKey is returned for tool keys that are not in the
// serviceObject.method form.
var ErrInvalidToolKey = errors.New("invalid tool key")

// Tool represents one remote capability discovered from a service.
// Instances are created fresh on every discovery call and owned by the
// component that requested discovery.
type Tool struct {
	// ServiceID and ServiceName identify the originating service.
	ServiceID   string `json:"serviceId"`
	ServiceName string `json:"serviceName,omitempty"`

	// Name is the tool's declared name in the service's native casing.
	Name string `json:"name"`

	// Description is the tool's free-text description.
	Description string `json:"description,omitempty"`

	// InputSchema and OutputSchema are the declared data shapes, as
	// decoded JSON (map[string]any). OutputSchema may be nil.
	InputSchema  any `json:"inputSchema,omitempty"`
	OutputSchema any `json:"outputSchema,omitempty"`
}

// Key returns the scoped script-side identifier for the tool,
// e.g. weatherServer.getAlerts.
func (t Tool) Key() string {
	return FormatToolKey(naming.ServiceObjectName(t.ServiceID), naming.MethodName(t.Name))
}

// FromMCPTool converts a protocol-level tool declaration into a Tool
// owned by the given service.
func FromMCPTool(svc ServiceConfig, mt *mcp.Tool) Tool {
	return Tool{
		ServiceID:    svc.ID,
		ServiceName:  svc.DisplayName(),
		Name:         mt.Name,
		Description:  mt.Description,
		InputSchema:  mt.InputSchema,
		OutputSchema: mt.OutputSchema,
	}
}

// FormatToolKey builds a scoped tool key from an object and method
// identifier.
func FormatToolKey(object, method string) string {
	return object + "." + method
}

// ParseToolKey splits a scoped tool key into its object and method
// identifiers. The key must contain exactly one dot separating two
// non-empty parts.
func ParseToolKey(key string) (object, method string, err error) {
	i := strings.IndexByte(key, '.')
	if i <= 0 || i == len(key)-1 || strings.IndexByte(key[i+1:], '.') >= 0 {
		return "", "", fmt.Errorf("%w: %q (want serviceObject.method)", ErrInvalidToolKey, key)
	}
	return key[:i], key[i+1:], nil
}
