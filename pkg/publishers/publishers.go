package publishers

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	// Supported publisher types.
	TypeSQS       = "sqs"
	TypeSNS       = "sns"
	TypeHTTP      = "http"
	TypeGCPPubSub = "gcp_pubsub"
	TypeKafka     = "kafka"

	httpDefaultMethod         = "POST"
	httpDefaultTimeoutSeconds = 5
)

// configFile represents the structure of the publishers configuration file.
type configFile struct {
	Publishers []PublisherConfig `json:"publishers" yaml:"publishers"`
}

// PublisherConfig represents a single publisher entry declared in config files.
type PublisherConfig struct {
	ID        string                    `json:"id" yaml:"id"`
	Type      string                    `json:"type" yaml:"type"`
	Enabled   *bool                     `json:"enabled" yaml:"enabled"`
	SQS       *SQSPublisherConfig       `json:"sqs" yaml:"sqs"`
	SNS       *SNSPublisherConfig       `json:"sns" yaml:"sns"`
	HTTP      *HTTPPublisherConfig      `json:"http" yaml:"http"`
	GCPPubSub *GCPPubSubPublisherConfig `json:"gcp_pubsub" yaml:"gcp_pubsub"`
	Kafka     *KafkaPublisherConfig     `json:"kafka" yaml:"kafka"`
}

// AWSAuth holds optional static credentials and endpoint override shared by AWS sinks.
// Empty keys fall back to the default credential chain.
type AWSAuth struct {
	AccessKeyID     string `json:"access_key_id" yaml:"access_key_id"`
	SecretAccessKey string `json:"secret_access_key" yaml:"secret_access_key"`
	SessionToken    string `json:"session_token" yaml:"session_token"`
	Endpoint        string `json:"endpoint" yaml:"endpoint"`
}

// SQSPublisherConfig holds AWS SQS specific settings.
type SQSPublisherConfig struct {
	QueueURL string `json:"uri" yaml:"uri"`
	Region   string `json:"region" yaml:"region"`
	AWSAuth  `json:",inline" yaml:",inline"`
}

// SNSPublisherConfig holds AWS SNS specific settings.
type SNSPublisherConfig struct {
	TopicARN string `json:"topic_arn" yaml:"topic_arn"`
	Region   string `json:"region" yaml:"region"`
	AWSAuth  `json:",inline" yaml:",inline"`
}

// GCPPubSubPublisherConfig holds Google Cloud Pub/Sub settings.
type GCPPubSubPublisherConfig struct {
	ProjectID       string `json:"project_id" yaml:"project_id"`
	Topic           string `json:"topic" yaml:"topic"`
	CredentialsFile string `json:"credentials_file" yaml:"credentials_file"`
}

// KafkaPublisherConfig holds Kafka producer settings.
type KafkaPublisherConfig struct {
	Brokers []string `json:"brokers" yaml:"brokers"`
	Topic   string   `json:"topic" yaml:"topic"`
}

// HTTPPublisherConfig holds generic HTTP sink settings.
type HTTPPublisherConfig struct {
	URL            string            `json:"url" yaml:"url"`
	Method         string            `json:"method" yaml:"method"`
	Headers        map[string]string `json:"headers" yaml:"headers"`
	TimeoutSeconds int               `json:"timeout_seconds" yaml:"timeout_seconds"`
}

// sinkConfig is implemented by every type-specific block of a PublisherConfig.
type sinkConfig interface {
	normalize()
	validate() error
}

// sink returns the block matching cfg.Type, or nil when it is missing or the type is unknown.
func (cfg PublisherConfig) sink() sinkConfig {
	switch cfg.Type {
	case TypeHTTP:
		if cfg.HTTP != nil {
			return cfg.HTTP
		}
	case TypeSQS:
		if cfg.SQS != nil {
			return cfg.SQS
		}
	case TypeSNS:
		if cfg.SNS != nil {
			return cfg.SNS
		}
	case TypeGCPPubSub:
		if cfg.GCPPubSub != nil {
			return cfg.GCPPubSub
		}
	case TypeKafka:
		if cfg.Kafka != nil {
			return cfg.Kafka
		}
	}
	return nil
}

// normalized returns a copy with trimmed fields and defaults applied.
// Type blocks are copied so the caller's config is never mutated.
func (cfg PublisherConfig) normalized() PublisherConfig {
	cfg.ID = strings.TrimSpace(cfg.ID)
	cfg.Type = strings.ToLower(strings.TrimSpace(cfg.Type))
	if cfg.Enabled == nil {
		on := true
		cfg.Enabled = &on
	}
	cfg.HTTP = cloneNormalized(cfg.HTTP)
	cfg.SQS = cloneNormalized(cfg.SQS)
	cfg.SNS = cloneNormalized(cfg.SNS)
	cfg.GCPPubSub = cloneNormalized(cfg.GCPPubSub)
	cfg.Kafka = cloneNormalized(cfg.Kafka)
	return cfg
}

func cloneNormalized[T any, P interface {
	*T
	sinkConfig
}](c P) P {
	if c == nil {
		return nil
	}
	cp := *c
	P(&cp).normalize()
	return &cp
}

// validate checks the id, the type and the block the type requires.
func (cfg PublisherConfig) validate() error {
	if cfg.ID == "" {
		return errors.New("id is required")
	}
	if cfg.Type == "" {
		return fmt.Errorf("type is required for publisher %q", cfg.ID)
	}
	switch cfg.Type {
	case TypeHTTP, TypeSQS, TypeSNS, TypeGCPPubSub, TypeKafka:
	default:
		return fmt.Errorf("unsupported type %q for publisher %q", cfg.Type, cfg.ID)
	}
	sink := cfg.sink()
	if sink == nil {
		return fmt.Errorf("%s config required for publisher %q", cfg.Type, cfg.ID)
	}
	if err := sink.validate(); err != nil {
		return fmt.Errorf("publisher %q: %w", cfg.ID, err)
	}
	return nil
}

func (c *HTTPPublisherConfig) normalize() {
	c.URL = strings.TrimSpace(c.URL)
	c.Method = strings.ToUpper(strings.TrimSpace(c.Method))
	if c.Method == "" {
		c.Method = httpDefaultMethod
	}
	if c.TimeoutSeconds <= 0 {
		c.TimeoutSeconds = httpDefaultTimeoutSeconds
	}
	c.Headers = trimHeaders(c.Headers)
}

func (c *HTTPPublisherConfig) validate() error {
	return requireFields(map[string]string{"http.url": c.URL})
}

func (c *SQSPublisherConfig) normalize() {
	c.QueueURL = strings.TrimSpace(c.QueueURL)
	c.Region = strings.TrimSpace(c.Region)
	c.AWSAuth.normalize()
}

func (c *SQSPublisherConfig) validate() error {
	return requireFields(map[string]string{"sqs.uri": c.QueueURL, "sqs.region": c.Region})
}

func (c *SNSPublisherConfig) normalize() {
	c.TopicARN = strings.TrimSpace(c.TopicARN)
	c.Region = strings.TrimSpace(c.Region)
	c.AWSAuth.normalize()
}

func (c *SNSPublisherConfig) validate() error {
	return requireFields(map[string]string{"sns.topic_arn": c.TopicARN, "sns.region": c.Region})
}

func (c *GCPPubSubPublisherConfig) normalize() {
	c.ProjectID = strings.TrimSpace(c.ProjectID)
	c.Topic = strings.TrimSpace(c.Topic)
	c.CredentialsFile = strings.TrimSpace(c.CredentialsFile)
}

func (c *GCPPubSubPublisherConfig) validate() error {
	return requireFields(map[string]string{"gcp_pubsub.project_id": c.ProjectID, "gcp_pubsub.topic": c.Topic})
}

func (c *KafkaPublisherConfig) normalize() {
	brokers := make([]string, 0, len(c.Brokers))
	for _, b := range c.Brokers {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	c.Brokers = brokers
	c.Topic = strings.TrimSpace(c.Topic)
}

func (c *KafkaPublisherConfig) validate() error {
	if len(c.Brokers) == 0 {
		return errors.New("kafka.brokers must list at least one broker")
	}
	return requireFields(map[string]string{"kafka.topic": c.Topic})
}

func (a *AWSAuth) normalize() {
	a.AccessKeyID = strings.TrimSpace(a.AccessKeyID)
	a.SecretAccessKey = strings.TrimSpace(a.SecretAccessKey)
	a.SessionToken = strings.TrimSpace(a.SessionToken)
	a.Endpoint = strings.TrimSpace(a.Endpoint)
}

// requireFields reports the missing keys in sorted order.
func requireFields(fields map[string]string) error {
	var missing []string
	for key, v := range fields {
		if v == "" {
			missing = append(missing, key)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	sort.Strings(missing)
	return fmt.Errorf("missing %s", strings.Join(missing, ", "))
}

// trimHeaders drops headers with a blank name or value.
func trimHeaders(headers map[string]string) map[string]string {
	out := make(map[string]string, len(headers))
	for k, v := range headers {
		if k, v = strings.TrimSpace(k), strings.TrimSpace(v); k != "" && v != "" {
			out[k] = v
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// ConfigRegistry is the immutable set of publishers declared in a config file.
type ConfigRegistry struct {
	publishers []PublisherConfig
	byID       map[string]int
}

// LoadRegistry reads publishers from a .yaml/.yml or .json file. Files with
// another extension are tried as YAML, then JSON.
func LoadRegistry(path string) (*ConfigRegistry, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("publishers file path is empty")
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read publishers file: %w", err)
	}

	file, err := decodePublishers(raw, filepath.Ext(path))
	if err != nil {
		return nil, err
	}
	if len(file.Publishers) == 0 {
		return nil, errors.New("publishers file contains no publishers entries")
	}

	reg := &ConfigRegistry{
		publishers: make([]PublisherConfig, 0, len(file.Publishers)),
		byID:       make(map[string]int, len(file.Publishers)),
	}
	for i, entry := range file.Publishers {
		cfg := entry.normalized()
		if err := cfg.validate(); err != nil {
			return nil, fmt.Errorf("publishers[%d]: %w", i, err)
		}
		if _, dup := reg.byID[cfg.ID]; dup {
			return nil, fmt.Errorf("duplicate publisher id %q", cfg.ID)
		}
		reg.byID[cfg.ID] = len(reg.publishers)
		reg.publishers = append(reg.publishers, cfg)
	}
	return reg, nil
}

func decodePublishers(data []byte, ext string) (configFile, error) {
	var decoders []func([]byte, any) error
	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		decoders = append(decoders, yaml.Unmarshal)
	case ".json":
		decoders = append(decoders, json.Unmarshal)
	default:
		decoders = append(decoders, yaml.Unmarshal, json.Unmarshal)
	}

	var lastErr error
	for _, decode := range decoders {
		var file configFile
		if err := decode(data, &file); err != nil {
			lastErr = err
			continue
		}
		return file, nil
	}
	return configFile{}, fmt.Errorf("decode publishers file: %w", lastErr)
}

// ByID returns the publisher config by id.
func (r *ConfigRegistry) ByID(id string) (PublisherConfig, bool) {
	if r == nil {
		return PublisherConfig{}, false
	}
	i, ok := r.byID[strings.TrimSpace(id)]
	if !ok {
		return PublisherConfig{}, false
	}
	return r.publishers[i], true
}

// All returns every configured publisher in file order.
func (r *ConfigRegistry) All() []PublisherConfig {
	if r == nil {
		return nil
	}
	out := make([]PublisherConfig, len(r.publishers))
	copy(out, r.publishers)
	return out
}

// Enabled returns the publishers not switched off with enabled: false.
func (r *ConfigRegistry) Enabled() []PublisherConfig {
	if r == nil {
		return nil
	}
	var out []PublisherConfig
	for _, cfg := range r.publishers {
		if cfg.EnabledValue() {
			out = append(out, cfg)
		}
	}
	return out
}

// EnabledValue returns the enabled flag, true when unset.
func (cfg PublisherConfig) EnabledValue() bool {
	return cfg.Enabled == nil || *cfg.Enabled
}
