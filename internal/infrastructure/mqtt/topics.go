package mqtt

import (
	"fmt"
	"strings"
)

// Topic prefixes.
const (
	TopicPrefix       = "smartconnect"
	TopicPrefixSystem = "smartconnect/system"
)

// Topics provides builders for SmartConnect MQTT topics.
//
//	topics := mqtt.Topics{}
//	topics.ReaderDecision("AA:BB:CC")
//	// Returns: "smartconnect/reader/AA:BB:CC/decision"
type Topics struct{}

// ReaderAccess is where a reader reports a presented card.
func (Topics) ReaderAccess(uid string) string {
	return fmt.Sprintf("%s/reader/%s/access", TopicPrefix, uid)
}

// ReaderDecision is where the core answers a reader.
func (Topics) ReaderDecision(uid string) string {
	return fmt.Sprintf("%s/reader/%s/decision", TopicPrefix, uid)
}

// BarrierState carries the applied state of a barrier. Published retained.
func (Topics) BarrierState(barrierID string) string {
	return fmt.Sprintf("%s/barrier/%s/state", TopicPrefix, barrierID)
}

// SystemStatus returns the core online/offline topic.
func (Topics) SystemStatus() string {
	return TopicPrefixSystem + "/status"
}

// AllReaderAccess matches access reports from every reader.
//
// Pattern: smartconnect/reader/+/access
func (Topics) AllReaderAccess() string {
	return TopicPrefix + "/reader/+/access"
}

// ReaderUID extracts the reader UID from a reader topic. It returns false
// when topic is not of the form smartconnect/reader/{uid}/{leaf}.
func (Topics) ReaderUID(topic string) (string, bool) {
	rest, ok := strings.CutPrefix(topic, TopicPrefix+"/reader/")
	if !ok {
		return "", false
	}
	i := strings.LastIndexByte(rest, '/')
	if i <= 0 {
		return "", false
	}
	return rest[:i], true
}
