package naming

import "testing"

func TestToCamel(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"get_alerts", "getAlerts"},
		{"get-forecast", "getForecast"},
		{"get_alerts_by_zone", "getAlertsByZone"},
		{"getAlerts", "getAlerts"},
		{"alerts", "alerts"},
		{"mixed_kebab-case", "mixedKebabCase"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := ToCamel(tt.in); got != tt.want {
			t.Errorf("ToCamel(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestToCamel_Idempotent(t *testing.T) {
	inputs := []string{"get_alerts", "weather-server", "alreadyCamel", "a_b_c"}
	for _, in := range inputs {
		once := ToCamel(in)
		if twice := ToCamel(once); twice != once {
			t.Errorf("ToCamel not idempotent for %q: %q != %q", in, twice, once)
		}
	}
}

func TestToPascal(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"get_alerts", "GetAlerts"},
		{"weather", "Weather"},
		{"alreadyPascal", "AlreadyPascal"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := ToPascal(tt.in); got != tt.want {
			t.Errorf("ToPascal(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestServiceObjectName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"weather-server", "weatherServer"},
		{"geo", "geoServer"},
		{"my_tools-server", "myToolsServer"},
		// Exactly one trailing suffix is stripped; contrived ids pin
		// the behavior even though callers should not produce them.
		{"weather-server-server", "weatherServerServer"},
	}
	for _, tt := range tests {
		if got := ServiceObjectName(tt.in); got != tt.want {
			t.Errorf("ServiceObjectName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestServiceNamespaceName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"weather-server", "WeatherServer"},
		{"geo", "Geo"},
		{"data_tools", "DataTools"},
	}
	for _, tt := range tests {
		if got := ServiceNamespaceName(tt.in); got != tt.want {
			t.Errorf("ServiceNamespaceName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestMethodName(t *testing.T) {
	if got := MethodName("get_alerts"); got != "getAlerts" {
		t.Errorf("MethodName(get_alerts) = %q, want getAlerts", got)
	}
}

func TestTypeNames(t *testing.T) {
	if got := InputTypeName("getAlerts"); got != "GetAlertsInput" {
		t.Errorf("InputTypeName = %q, want GetAlertsInput", got)
	}
	if got := OutputTypeName("getAlerts"); got != "GetAlertsOutput" {
		t.Errorf("OutputTypeName = %q, want GetAlertsOutput", got)
	}
}
