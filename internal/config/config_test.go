package config

import (
	"testing"
	"time"
)

func expectPanic(t *testing.T, name string) {
	t.Helper()
	if r := recover(); r == nil {
		t.Errorf("%s should have panicked", name)
	}
}

func TestRequireEnv(t *testing.T) {
	t.Run("variable set", func(t *testing.T) {
		t.Setenv("TEST_VAR", "test_value")
		if got := requireEnv("TEST_VAR"); got != "test_value" {
			t.Errorf("requireEnv() = %v, want test_value", got)
		}
	})

	t.Run("variable not set", func(t *testing.T) {
		defer expectPanic(t, "requireEnv()")
		requireEnv("TEST_VAR_MISSING")
	})
}

func TestRequireEnvSlice(t *testing.T) {
	tests := []struct {
		name     string
		value    string
		expected []string
	}{
		{"single value", "nats://a:4222", []string{"nats://a:4222"}},
		{"multiple values", "k1:9092, 'k2:9092' , k3:9092", []string{"k1:9092", "k2:9092", "k3:9092"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("TEST_SLICE", tt.value)
			result := requireEnvSlice("TEST_SLICE")
			if len(result) != len(tt.expected) {
				t.Fatalf("requireEnvSlice() = %v, want %v", result, tt.expected)
			}
			for i := range result {
				if result[i] != tt.expected[i] {
					t.Errorf("requireEnvSlice()[%d] = %v, want %v", i, result[i], tt.expected[i])
				}
			}
		})
	}

	t.Run("only separators", func(t *testing.T) {
		t.Setenv("TEST_SLICE", " , ,")
		defer expectPanic(t, "requireEnvSlice()")
		requireEnvSlice("TEST_SLICE")
	})
}

func TestOneOf(t *testing.T) {
	t.Setenv("TEST_ONE_OF", "Redis")
	if got := oneOf("TEST_ONE_OF", StoreMemory, StoreMemory, StoreRedis); got != StoreRedis {
		t.Errorf("oneOf() = %q, want redis", got)
	}
	if got := oneOf("TEST_ONE_OF_MISSING", StoreMemory, StoreMemory, StoreRedis); got != StoreMemory {
		t.Errorf("oneOf() default = %q, want memory", got)
	}

	t.Setenv("TEST_ONE_OF", "postgres")
	defer expectPanic(t, "oneOf()")
	oneOf("TEST_ONE_OF", StoreMemory, StoreMemory, StoreRedis)
}

func TestMustDuration(t *testing.T) {
	tests := []struct {
		name     string
		value    string
		def      time.Duration
		expected time.Duration
	}{
		{"valid duration", "5s", time.Second, 5 * time.Second},
		{"invalid duration uses default", "invalid", 10 * time.Second, 10 * time.Second},
		{"missing variable uses default", "", 15 * time.Second, 15 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("TEST_DURATION", tt.value)
			if got := mustDuration("TEST_DURATION", tt.def); got != tt.expected {
				t.Errorf("mustDuration() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestMustBoolAndInt(t *testing.T) {
	t.Setenv("TEST_BOOL", "true")
	t.Setenv("TEST_BOOL_INVALID", "maybe")
	t.Setenv("TEST_INT", "12")
	t.Setenv("TEST_INT_INVALID", "twelve")

	if !mustBool("TEST_BOOL", false) {
		t.Error("mustBool() = false, want true")
	}
	if !mustBool("TEST_BOOL_INVALID", true) {
		t.Error("mustBool() with invalid value should use default")
	}
	if got := getenvInt("TEST_INT", 1); got != 12 {
		t.Errorf("getenvInt() = %d, want 12", got)
	}
	if got := getenvInt("TEST_INT_INVALID", 1); got != 1 {
		t.Errorf("getenvInt() with invalid value = %d, want default 1", got)
	}
}

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	if cfg.Store != StoreMemory || cfg.NotifyTransport != NotifyLog {
		t.Errorf("Load() store/transport = %s/%s", cfg.Store, cfg.NotifyTransport)
	}
	if cfg.ListenPort != ":8080" || cfg.DeliveryTimeout != 5*time.Second {
		t.Errorf("Load() = %+v", cfg)
	}
	if cfg.NATSSubjectPrefix != "stashboard" {
		t.Errorf("NATSSubjectPrefix = %q", cfg.NATSSubjectPrefix)
	}
}

func TestLoadRequiresBackendSettings(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"redis without addr", map[string]string{"STASHBOARD_STORE": "redis"}},
		{"redis password required", map[string]string{
			"STASHBOARD_STORE":                   "redis",
			"STASHBOARD_REDIS_ADDR":              "localhost:6379",
			"STASHBOARD_REDIS_PASSWORD_REQUIRED": "true",
		}},
		{"nats without url", map[string]string{"STASHBOARD_NOTIFY_TRANSPORT": "nats"}},
		{"amqp without url", map[string]string{"STASHBOARD_NOTIFY_TRANSPORT": "amqp"}},
		{"kafka without brokers", map[string]string{"STASHBOARD_NOTIFY_TRANSPORT": "kafka"}},
		{"unknown transport", map[string]string{"STASHBOARD_NOTIFY_TRANSPORT": "carrier-pigeon"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			defer expectPanic(t, "Load()")
			Load()
		})
	}
}

func TestRedacted(t *testing.T) {
	cfg := Config{RedisPassword: "secret", APIToken: "token", AMQPURL: "amqp://u:p@host"}
	r := cfg.Redacted()
	if r.RedisPassword == "secret" || r.APIToken == "token" || r.AMQPURL == "amqp://u:p@host" {
		t.Errorf("Redacted() leaked secrets: %+v", r)
	}
	if cfg.APIToken != "token" {
		t.Error("Redacted() modified the original")
	}
}
