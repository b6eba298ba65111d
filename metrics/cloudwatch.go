// file: metrics/cloudwatch.go
package metrics

import (
	"sync"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/cloudwatch"
	"github.com/aws/aws-sdk-go/service/cloudwatch/cloudwatchiface"

	"pickle-web/logger"
)

// Namespace for all pickle-web CloudWatch metrics
const metricsNamespace = "PickleWeb"

// CloudWatchPublisher sends single data points to CloudWatch.
type CloudWatchPublisher struct {
	client      cloudwatchiface.CloudWatchAPI
	environment string
}

// NewCloudWatchPublisher wraps an existing client.
func NewCloudWatchPublisher(client cloudwatchiface.CloudWatchAPI, environment string) *CloudWatchPublisher {
	return &CloudWatchPublisher{client: client, environment: environment}
}

// NewCloudWatchPublisherFromEnv builds a client from the default AWS
// credential chain.
func NewCloudWatchPublisherFromEnv(environment string) (*CloudWatchPublisher, error) {
	sess, err := session.NewSession()
	if err != nil {
		return nil, err
	}
	return NewCloudWatchPublisher(cloudwatch.New(sess), environment), nil
}

// PutMetric pushes one value. Failures are logged and otherwise ignored.
func (p *CloudWatchPublisher) PutMetric(metricName string, value float64, unit string) {
	_, err := p.client.PutMetricData(&cloudwatch.PutMetricDataInput{
		Namespace: aws.String(metricsNamespace),
		MetricData: []*cloudwatch.MetricDatum{
			{
				MetricName: aws.String(metricName),
				Dimensions: []*cloudwatch.Dimension{
					{
						Name:  aws.String("Environment"),
						Value: aws.String(p.environment),
					},
				},
				Timestamp: aws.Time(time.Now()),
				Value:     aws.Float64(value),
				Unit:      aws.String(unit),
			},
		},
	})
	if err != nil {
		logger.Error.Printf("[PutMetric] CloudWatch metric failed (%s): %v", metricName, err)
	}
}

var (
	publisherMu sync.RWMutex
	publisher   *CloudWatchPublisher
)

// EnableCloudWatch mirrors booking counters to p. Passing nil disables it.
func EnableCloudWatch(p *CloudWatchPublisher) {
	publisherMu.Lock()
	defer publisherMu.Unlock()
	publisher = p
}

func publish(metricName string, value float64, unit string) {
	publisherMu.RLock()
	p := publisher
	publisherMu.RUnlock()
	if p != nil {
		p.PutMetric(metricName, value, unit)
	}
}
