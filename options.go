package mqtt

import (
	"time"

	"github.com/golang-io/mqttc/packet"
	"github.com/golang-io/requests"
)

// Options holds everything a Client needs at construction (spec §6's five
// recognized configuration options, plus connection/will parameters).
// There is no persisted state — every field here lives only in memory for
// the lifetime of the Client.
type Options struct {
	URL      string
	ClientID string

	KeepAlive         uint16
	ReceiveBufferSize uint32
	DefaultTimeout    time.Duration
	CleanStart        bool
	Username          string
	Password          string
	HasUsername       bool
	HasPassword       bool

	WillTopic   string
	WillPayload []byte
	WillQoS     uint8
	WillRetain  bool

	RootCertDER        []byte
	InsecureSkipVerify bool

	AuthSupport        bool
	UnsubscribeSupport bool
	TLS                bool
	Validation         bool
	DumpCommunication  bool

	Subscriptions []packet.Subscription

	OnMessage func(topic string, payload []byte, packetID uint16, props *packet.PublishProperties)
	OnAuth    func(reason packet.ReasonCode, method string, data []byte) bool
}

type Option func(*Options)

func newOptions(opts ...Option) Options {
	options := Options{
		URL:               "mqtt://127.0.0.1:1883",
		ClientID:          "mqtt-" + requests.GenId(),
		KeepAlive:         60,
		ReceiveBufferSize: 4096,
		DefaultTimeout:    10 * time.Second,
		CleanStart:        true,
		Validation:        true,
	}
	for _, o := range opts {
		o(&options)
	}
	return options
}

func URL(url string) Option {
	return func(o *Options) { o.URL = url }
}

func ClientID(id string) Option {
	return func(o *Options) { o.ClientID = id }
}

func KeepAlive(seconds uint16) Option {
	return func(o *Options) { o.KeepAlive = seconds }
}

func ReceiveBufferSize(n uint32) Option {
	return func(o *Options) { o.ReceiveBufferSize = n }
}

func DefaultTimeout(d time.Duration) Option {
	return func(o *Options) { o.DefaultTimeout = d }
}

func CleanStart(clean bool) Option {
	return func(o *Options) { o.CleanStart = clean }
}

func Credentials(username, password string) Option {
	return func(o *Options) {
		o.Username, o.HasUsername = username, true
		o.Password, o.HasPassword = password, true
	}
}

func Will(topic string, payload []byte, qos uint8, retain bool) Option {
	return func(o *Options) {
		o.WillTopic, o.WillPayload, o.WillQoS, o.WillRetain = topic, payload, qos, retain
	}
}

// TLSRootCert enables the TLS transport variant and, when rootCertDER is
// non-empty, pins verification to that single DER-encoded certificate
// instead of the system trust store.
func TLSRootCert(rootCertDER []byte, insecureSkipVerify bool) Option {
	return func(o *Options) {
		o.TLS = true
		o.RootCertDER = rootCertDER
		o.InsecureSkipVerify = insecureSkipVerify
	}
}

func AuthSupport(on bool) Option {
	return func(o *Options) { o.AuthSupport = on }
}

func UnsubscribeSupport(on bool) Option {
	return func(o *Options) { o.UnsubscribeSupport = on }
}

func Validation(on bool) Option {
	return func(o *Options) { o.Validation = on }
}

func DumpCommunication(on bool) Option {
	return func(o *Options) { o.DumpCommunication = on }
}

func Subscription(subscription ...packet.Subscription) Option {
	return func(o *Options) {
		o.Subscriptions = append(o.Subscriptions, subscription...)
	}
}

func OnMessage(fn func(topic string, payload []byte, packetID uint16, props *packet.PublishProperties)) Option {
	return func(o *Options) { o.OnMessage = fn }
}

func OnAuth(fn func(reason packet.ReasonCode, method string, data []byte) bool) Option {
	return func(o *Options) { o.OnAuth = fn }
}
