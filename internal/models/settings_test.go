package models

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedID() string { return "client_abcdefgh" }

func TestNewRepositoryStartsUnset(t *testing.T) {
	repo := NewSettingsRepository(fixedID)
	snap := repo.Snapshot()

	assert.Equal(t, DefaultSettings(), snap.Settings)
	assert.Equal(t, Unset, snap.ClientID)

	_, ok := snap.Settings.PortNumber()
	assert.False(t, ok)
	_, ok = snap.Settings.QoSLevel()
	assert.False(t, ok)
	_, ok = snap.Settings.RetainFlag()
	assert.False(t, ok)
}

func TestSetters(t *testing.T) {
	repo := NewSettingsRepository(fixedID)

	repo.SetBrokerIP("broker.local")
	require.NoError(t, repo.SetPort(" 1883 "))
	repo.SetUsername("alice")
	repo.SetPassword("secret")
	require.NoError(t, repo.SetQoS("2"))
	require.NoError(t, repo.SetRetain("true"))
	require.NoError(t, repo.SetCleanSession("False"))
	repo.SetTopic("home/lights")
	assert.Equal(t, "client_abcdefgh", repo.GenerateClientID())

	s := repo.Settings()
	assert.Equal(t, Settings{
		BrokerIP:     "broker.local",
		Port:         "1883",
		Username:     "alice",
		Password:     "secret",
		QoS:          "2",
		Retain:       "True",
		CleanSession: "False",
		Topic:        "home/lights",
	}, s)

	port, ok := s.PortNumber()
	assert.True(t, ok)
	assert.Equal(t, 1883, port)

	qos, ok := s.QoSLevel()
	assert.True(t, ok)
	assert.Equal(t, byte(2), qos)

	retain, ok := s.RetainFlag()
	assert.True(t, ok)
	assert.True(t, retain)

	clean, ok := s.CleanSessionFlag()
	assert.True(t, ok)
	assert.False(t, clean)
}

func TestSetterValidation(t *testing.T) {
	repo := NewSettingsRepository(fixedID)

	tests := []struct {
		name string
		fn   func() error
	}{
		{"port not a number", func() error { return repo.SetPort("abc") }},
		{"port out of range", func() error { return repo.SetPort("70000") }},
		{"port zero", func() error { return repo.SetPort("0") }},
		{"qos out of range", func() error { return repo.SetQoS("3") }},
		{"qos placeholder", func() error { return repo.SetQoS("QoS") }},
		{"retain not a flag", func() error { return repo.SetRetain("maybe") }},
		{"clean session not a flag", func() error { return repo.SetCleanSession("Clean Session") }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.fn()
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidValue)
		})
	}

	assert.Equal(t, DefaultSettings(), repo.Settings())
}

func TestSaveLoadRoundTrip(t *testing.T) {
	src := NewSettingsRepository(fixedID)
	src.SetBrokerIP("10.0.0.5")
	require.NoError(t, src.SetPort("8883"))
	src.SetUsername("bob")
	require.NoError(t, src.SetRetain("False"))
	src.SetTopic("sensors/#")

	var buf bytes.Buffer
	require.NoError(t, src.Save(&buf))

	var raw map[string]string
	require.NoError(t, json.Unmarshal(buf.Bytes(), &raw))
	assert.Len(t, raw, 8)
	assert.Equal(t, "10.0.0.5", raw["Broker IP"])
	assert.Equal(t, "None", raw["Password"])
	assert.Equal(t, "False", raw["Retain"])
	assert.Equal(t, "None", raw["Clean Session"])

	dst := NewSettingsRepository(fixedID)
	require.NoError(t, dst.Load(&buf))
	assert.Equal(t, src.Settings(), dst.Settings())
	assert.Equal(t, Unset, dst.ClientID())
}

func TestLoadAcceptsOriginalFiles(t *testing.T) {
	doc := `{"Broker IP": "test.mosquitto.org", "Port": "1883", "Username": "None",
		"Password": "None", "QoS": "1", "Retain": "True", "Clean Session": "True", "Topic": "a/b"}`

	repo := NewSettingsRepository(fixedID)
	require.NoError(t, repo.Load(strings.NewReader(doc)))

	s := repo.Settings()
	assert.Equal(t, "test.mosquitto.org", s.BrokerIP)
	qos, ok := s.QoSLevel()
	assert.True(t, ok)
	assert.Equal(t, byte(1), qos)
}

func TestLoadRejectsIncompleteOrInvalid(t *testing.T) {
	tests := []struct {
		name    string
		doc     string
		wantErr error
	}{
		{
			name:    "missing key",
			doc:     `{"Broker IP": "x", "Port": "1883"}`,
			wantErr: ErrMissingKey,
		},
		{
			name: "bad port",
			doc: `{"Broker IP": "x", "Port": "port", "Username": "None", "Password": "None",
				"QoS": "None", "Retain": "None", "Clean Session": "None", "Topic": "None"}`,
			wantErr: ErrInvalidValue,
		},
		{
			name: "bad retain",
			doc: `{"Broker IP": "x", "Port": "None", "Username": "None", "Password": "None",
				"QoS": "None", "Retain": "yes please", "Clean Session": "None", "Topic": "None"}`,
			wantErr: ErrInvalidValue,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := NewSettingsRepository(fixedID)
			repo.SetBrokerIP("keep-me")

			err := repo.Load(strings.NewReader(tt.doc))
			require.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, "keep-me", repo.Settings().BrokerIP)
		})
	}

	repo := NewSettingsRepository(fixedID)
	assert.Error(t, repo.Load(strings.NewReader("not json")))
}

func TestReset(t *testing.T) {
	repo := NewSettingsRepository(fixedID)
	repo.SetBrokerIP("x")
	repo.GenerateClientID()

	repo.Reset()

	snap := repo.Snapshot()
	assert.Equal(t, DefaultSettings(), snap.Settings)
	assert.Equal(t, Unset, snap.ClientID)
}

func TestClientState(t *testing.T) {
	c := NewClientState()

	_, ok := c.Message()
	assert.False(t, ok)
	_, _, ok = c.Subscription()
	assert.False(t, ok)

	c.SetMessage("lock")
	msg, ok := c.Message()
	assert.True(t, ok)
	assert.Equal(t, "lock", msg)

	c.SetSubscribeTopic("cmd/pc")
	_, _, ok = c.Subscription()
	assert.False(t, ok, "QoS still unset")

	assert.Error(t, c.SetSubscribeQoS("QoS"))
	require.NoError(t, c.SetSubscribeQoS("1"))

	topic, qos, ok := c.Subscription()
	assert.True(t, ok)
	assert.Equal(t, "cmd/pc", topic)
	assert.Equal(t, byte(1), qos)
}
