package metricspush

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/golang/snappy"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/prometheus/prompb"
	"github.com/smallbiznis/pathway/internal/config"
	"go.uber.org/zap"
)

const (
	exporterRemoteWrite = "prometheus_remote_write"
	defaultPushTimeout  = 5 * time.Second
	remoteWriteVersion  = "0.1.0"
)

// Pusher sends a registry snapshot to a remote metrics backend.
type Pusher interface {
	Push(ctx context.Context, registry *prometheus.Registry) error
}

// NewPusher returns nil, and the worker stays idle, unless the config names
// the remote_write exporter with a valid endpoint.
func NewPusher(cfg config.Config, logger *zap.Logger) Pusher {
	if logger == nil {
		logger = zap.NewNop()
	}
	pushCfg := cfg.MetricsPush
	if !pushCfg.Enabled() {
		return nil
	}

	if exporter := strings.ToLower(strings.TrimSpace(pushCfg.Exporter)); exporter != exporterRemoteWrite {
		logger.Warn("metrics push disabled: unsupported exporter", zap.String("exporter", exporter))
		return nil
	}
	endpoint := strings.TrimSpace(pushCfg.Endpoint)
	if _, err := url.ParseRequestURI(endpoint); err != nil {
		logger.Warn("metrics push disabled: invalid endpoint", zap.String("endpoint", endpoint), zap.Error(err))
		return nil
	}

	pusher := NewRemoteWritePusher(endpoint, pushCfg.AuthToken)
	pusher.labels = instanceLabels(cfg)
	return pusher
}

// RemoteWritePusher posts snappy-compressed prompb.WriteRequest bodies.
type RemoteWritePusher struct {
	endpoint  string
	authToken string
	labels    []prompb.Label
	client    *http.Client
	now       func() time.Time
}

func NewRemoteWritePusher(endpoint, authToken string) *RemoteWritePusher {
	return &RemoteWritePusher{
		endpoint:  endpoint,
		authToken: strings.TrimSpace(authToken),
		client:    &http.Client{Timeout: defaultPushTimeout},
		now:       time.Now,
	}
}

func (p *RemoteWritePusher) Push(ctx context.Context, registry *prometheus.Registry) error {
	if p == nil || registry == nil {
		return nil
	}
	families, err := registry.Gather()
	if err != nil {
		return fmt.Errorf("gather metrics: %w", err)
	}

	series := seriesFromFamilies(families, p.labels, p.now().UnixMilli())
	if len(series) == 0 {
		return nil
	}
	req := prompb.WriteRequest{Timeseries: series}
	raw, err := req.Marshal()
	if err != nil {
		return fmt.Errorf("encode write request: %w", err)
	}
	return p.post(ctx, snappy.Encode(nil, raw))
}

func (p *RemoteWritePusher) post(ctx context.Context, body []byte) error {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	httpReq.Header.Set("Content-Encoding", "snappy")
	httpReq.Header.Set("Content-Type", "application/x-protobuf")
	httpReq.Header.Set("X-Prometheus-Remote-Write-Version", remoteWriteVersion)
	if p.authToken != "" {
		httpReq.Header.Set("Authorization", "Bearer "+p.authToken)
	}

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode/100 != 2 {
		return fmt.Errorf("remote write %s: %s", p.endpoint, resp.Status)
	}
	return nil
}

// instanceLabels tags every series with the service and environment.
func instanceLabels(cfg config.Config) []prompb.Label {
	var labels []prompb.Label
	if v := strings.TrimSpace(cfg.AppName); v != "" {
		labels = append(labels, prompb.Label{Name: "service", Value: v})
	}
	if v := strings.TrimSpace(cfg.Environment); v != "" {
		labels = append(labels, prompb.Label{Name: "environment", Value: v})
	}
	return labels
}

// seriesFromFamilies keeps gauges and counters only. Metric labels win over
// instance labels with the same name, and each label set is sorted by name
// as remote_write requires.
func seriesFromFamilies(families []*dto.MetricFamily, extra []prompb.Label, timestampMs int64) []prompb.TimeSeries {
	var out []prompb.TimeSeries
	for _, family := range families {
		for _, metric := range family.GetMetric() {
			value, ok := sampleValue(family.GetType(), metric)
			if !ok {
				continue
			}
			out = append(out, prompb.TimeSeries{
				Labels:  seriesLabels(family.GetName(), metric.GetLabel(), extra),
				Samples: []prompb.Sample{{Value: value, Timestamp: timestampMs}},
			})
		}
	}
	return out
}

func seriesLabels(name string, pairs []*dto.LabelPair, extra []prompb.Label) []prompb.Label {
	byName := make(map[string]string, len(pairs)+len(extra)+1)
	for _, l := range extra {
		byName[l.Name] = l.Value
	}
	for _, pair := range pairs {
		byName[pair.GetName()] = pair.GetValue()
	}
	byName["__name__"] = name

	labels := make([]prompb.Label, 0, len(byName))
	for k, v := range byName {
		labels = append(labels, prompb.Label{Name: k, Value: v})
	}
	slices.SortFunc(labels, func(a, b prompb.Label) int {
		return strings.Compare(a.Name, b.Name)
	})
	return labels
}

func sampleValue(kind dto.MetricType, metric *dto.Metric) (float64, bool) {
	switch {
	case metric == nil:
		return 0, false
	case kind == dto.MetricType_GAUGE && metric.Gauge != nil:
		return metric.GetGauge().GetValue(), true
	case kind == dto.MetricType_COUNTER && metric.Counter != nil:
		return metric.GetCounter().GetValue(), true
	default:
		return 0, false
	}
}
