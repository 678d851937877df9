// Package status renders operation outcomes for the status bar and the message logs.
package status

import (
	"errors"
	"fmt"
	"time"
)

// Warning is an operator mistake rather than a failure
type Warning string

func (w Warning) Error() string { return string(w) }

const (
	ErrDisconnected      Warning = "You Are Disconnected!"
	ErrNoMessage         Warning = "You Didn't Set a Message to Send."
	ErrNoSubscription    Warning = "You Didn't Set a Topic or QoS For Subscribing."
	ErrAlreadySubscribed Warning = "You Already In Subscribe Mode"
	ErrNoPublishTopic    Warning = "You Didn't Set a Topic For Publishing."
	ErrNoBroker          Warning = "You Didn't Set a Broker IP and Port."
	ErrQuitCanceled      Warning = " Quit Canceled!"
)

// Success messages
const (
	Welcome             = "Welcome!"
	BrokerIPSet         = "Broker IP Has Been Successfully Configured."
	PortSet             = "Broker Port Has Been Successfully Configured."
	UsernameSet         = "Username Has Been Successfully Configured."
	PasswordSet         = "Password Has Been Successfully Configured."
	ClientIDSet         = "Client ID Has Been Successfully Configured."
	QoSSet              = "QoS Has Been Successfully Configured."
	RetainSet           = "Retain Has Been Successfully Configured."
	CleanSessionSet     = "Clean Session Has Been Successfully Configured."
	TopicSet            = "Topic For Publish Has Been Successfully Configured."
	SettingsLoaded      = "Current Configuration Has Been Successfully Loaded From Json File."
	SettingsSaved       = "Current Configuration Has Been Successfully Saved To Json File."
	SettingsReset       = "Current Configuration Has Been Successfully Reset!."
	MessageSet          = "Message To Send Has Been Successfully Configured."
	Connected           = "Mqtt Client Has Been Connected successfully!"
	ConnectFailed       = "Mqtt Client Couldn't Connect!"
	AlreadyConnected    = "Mqtt Client Is Already Connected."
	DisconnectRequested = "Mqtt Client Is Disconnecting..."
)

// LogTimeLayout is the HH:MM:SS dd/mm/yy stamp used in the message logs
const LogTimeLayout = "15:04:05 02/01/06"

// SettingsFileLayout names saved settings files current_settings_DD_MM_YY_HH_MM.json
const SettingsFileLayout = "current_settings_02_01_06_15_04"

func SubscribeTopicSet(topic string) string {
	return fmt.Sprintf("Subscribe Topic '%s' Has Been Successfully Configured.", topic)
}

func SubscribeQoSSet(qos byte) string {
	return fmt.Sprintf("Subscribe QoS of '%d' Has Been Successfully Configured.", qos)
}

func Subscribed(topic string, granted byte) string {
	return fmt.Sprintf("Subscribed to: '%s' with Granted QoS: '%d'", topic, granted)
}

func Disconnected(reason string) string {
	if reason == "" {
		return "Mqtt Client Has Been Disconnected successfully."
	}
	return fmt.Sprintf("Mqtt Client Has Been Disconnected: %s", reason)
}

// IsWarning reports whether err is, or wraps, a Warning
func IsWarning(err error) bool {
	var w Warning
	return errors.As(err, &w)
}

// Format renders an error for the status bar
func Format(err error) string {
	if err == nil {
		return ""
	}
	var w Warning
	if errors.As(err, &w) {
		return "UserWarning: " + w.Error()
	}
	return Failure(err.Error())
}

// Failure renders a status line for an error whose cause is only logged
func Failure(message string) string {
	return "Error Has Occurred: " + message
}

func SentLine(message, topic string, at time.Time) string {
	return fmt.Sprintf("Sent:  %s  to: %s at: %s", message, topic, at.Format(LogTimeLayout))
}

func ReceivedLine(message, topic string, at time.Time) string {
	return fmt.Sprintf("Received: %s from: %s at: %s", message, topic, at.Format(LogTimeLayout))
}

// SettingsFileName is the suggested name for a settings file saved at t
func SettingsFileName(t time.Time) string {
	return t.Format(SettingsFileLayout) + ".json"
}
