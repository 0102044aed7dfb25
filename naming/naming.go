package naming

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// serverSuffix is stripped (once) from service ids before deriving
// object and namespace names.
const serverSuffix = "-server"

var titler = cases.Title(language.English, cases.NoLower)

// ToCamel converts snake_case or kebab-case identifiers to camelCase.
// Each '-' or '_' is removed and the following character is uppercased.
// Input that is already camelCase is returned unchanged, which makes the
// function idempotent.
func ToCamel(s string) string {
	if !strings.ContainsAny(s, "-_") {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	upper := false
	for _, r := range s {
		if r == '-' || r == '_' {
			upper = true
			continue
		}
		if upper {
			r = unicode.ToUpper(r)
			upper = false
		}
		b.WriteRune(r)
	}
	return b.String()
}

// ToPascal converts an identifier to PascalCase: ToCamel followed by
// uppercasing the first character.
func ToPascal(s string) string {
	c := ToCamel(s)
	if c == "" {
		return c
	}
	_, size := utf8.DecodeRuneInString(c)
	return titler.String(c[:size]) + c[size:]
}

// ServiceObjectName derives the script-side object identifier for a
// service id. A single trailing "-server" suffix is stripped, the
// remainder is camel-cased, and the literal suffix "Server" is appended:
//
//	weather-server -> weatherServer
//	geo            -> geoServer
func ServiceObjectName(serviceID string) string {
	return ToCamel(strings.TrimSuffix(serviceID, serverSuffix)) + "Server"
}

// ServiceNamespaceName derives the generated type namespace for a
// service id: the same suffix stripping as ServiceObjectName, then
// PascalCase with no appended suffix:
//
//	weather-server -> WeatherServer
func ServiceNamespaceName(serviceID string) string {
	return ToPascal(strings.TrimSuffix(serviceID, serverSuffix))
}

// MethodName derives the script-side method identifier for a tool's
// native name: get_alerts -> getAlerts.
func MethodName(toolName string) string {
	return ToCamel(toolName)
}

// InputTypeName derives the generated input type name for a method
// identifier: getAlerts -> GetAlertsInput. The type is scoped to its
// service namespace, so no further qualification is needed.
func InputTypeName(method string) string {
	return ToPascal(method) + "Input"
}

// OutputTypeName derives the generated output type name for a method
// identifier: getAlerts -> GetAlertsOutput.
func OutputTypeName(method string) string {
	return ToPascal(method) + "Output"
}
