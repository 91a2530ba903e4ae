package mask_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rise-and-shine/repokit/mask"
)

type credentials struct {
	Username string `json:"username"`
	Password string `json:"password" mask:"true"`
}

type endpoint struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port" mask:"true"`
}

type serviceConfig struct {
	Name    string      `yaml:"name"`
	Debug   bool        `json:"-"`
	APIKey  string      `yaml:"api_key" mask:"true"`
	Creds   credentials `yaml:"creds"`
	Gateway *endpoint   `yaml:"gateway"`
	Retries int         `yaml:"retries"`
	scratch string
}

func pairs(t *testing.T, v any) (keys []string, values map[string]any) {
	t.Helper()
	om := mask.StructToOrdMap(v)
	require.NotNil(t, om)

	values = make(map[string]any)
	for pair := om.Oldest(); pair != nil; pair = pair.Next() {
		keys = append(keys, pair.Key)
		values[pair.Key] = pair.Value
	}
	return keys, values
}

func TestStructToOrdMap(t *testing.T) {
	cfg := serviceConfig{
		Name:    "orders",
		Debug:   true,
		APIKey:  "sk-123",
		Creds:   credentials{Username: "ann", Password: "hunter2"},
		Gateway: &endpoint{Host: "localhost", Port: 5432},
		Retries: 3,
		scratch: "ignored",
	}

	keys, values := pairs(t, cfg)

	assert.Equal(t, []string{
		"name",
		"api_key",
		"creds.username",
		"creds.password",
		"gateway.host",
		"gateway.port",
		"retries",
	}, keys, "fields keep declaration order, skipping excluded and unexported ones")

	assert.Equal(t, "orders", values["name"])
	assert.Equal(t, "***masked-string***", values["api_key"])
	assert.Equal(t, "ann", values["creds.username"])
	assert.Equal(t, "***masked-string***", values["creds.password"])
	assert.Equal(t, "localhost", values["gateway.host"])
	assert.Equal(t, "***masked-int***", values["gateway.port"])
	assert.Equal(t, 3, values["retries"])
}

func TestStructToOrdMapZeroValuesStayVisible(t *testing.T) {
	_, values := pairs(t, serviceConfig{Creds: credentials{Username: "ann"}})

	assert.Equal(t, "", values["api_key"])
	assert.Equal(t, "", values["creds.password"])
}

func TestStructToOrdMapNilPointerField(t *testing.T) {
	keys, values := pairs(t, serviceConfig{})

	assert.Contains(t, keys, "gateway")
	assert.Nil(t, values["gateway"])
	assert.NotContains(t, keys, "gateway.host", "nil pointers do not expand")
}

func TestStructToOrdMapNonStructInputs(t *testing.T) {
	assert.Nil(t, mask.StructToOrdMap(nil))
	assert.Nil(t, mask.StructToOrdMap(42))
	assert.Nil(t, mask.StructToOrdMap("text"))
	assert.Nil(t, mask.StructToOrdMap((*serviceConfig)(nil)))
}

func TestArgs(t *testing.T) {
	creds := credentials{Username: "ann", Password: "hunter2"}
	args := mask.Args([]any{"plain", 7, creds, &creds, nil})

	assert.Equal(t, "plain", args[0])
	assert.Equal(t, 7, args[1])
	assert.Nil(t, args[4])

	for _, i := range []int{2, 3} {
		om := mask.StructToOrdMap(creds)
		require.NotNil(t, om)
		assert.Equal(t, om, args[i])
	}
}
