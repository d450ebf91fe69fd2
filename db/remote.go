package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/dynamodb"
	"github.com/aws/aws-sdk-go/service/dynamodb/dynamodbattribute"
	"github.com/aws/aws-sdk-go/service/dynamodb/dynamodbiface"
)

// maxBatchGet is the DynamoDB limit on keys per BatchGetItem call.
const maxBatchGet = 100

const maxBatchAttempts = 5

var batchBackoff = 50 * time.Millisecond

// Mirror copies ledger runs to a DynamoDB table keyed by PK = run ID, so
// several machines can share one view of their experiments.
type Mirror struct {
	client dynamodbiface.DynamoDBAPI
	table  string
}

// remoteRun is the item layout written to DynamoDB.
type remoteRun struct {
	PK              string
	Checkpoint      string
	Optimizer       string
	Epochs          int
	BatchSize       int
	LearningRate    float64
	Momentum        float64
	Gamma           float64
	Clean           bool
	Downbeat        bool
	BestEpoch       int
	BestDevAccuracy float64
	EpochsRun       int
	StoppedEarly    bool
	StopReason      string
	TestAccuracy    *float64 `dynamodbav:",omitempty"`
	StartedAt       string
	DurationMs      int64
}

// NewMirror connects to DynamoDB. An empty endpoint uses the regular AWS
// endpoint for region; a local one such as http://localhost:8000 works with
// DynamoDB Local.
func NewMirror(endpoint, region, table string) (*Mirror, error) {
	if table == "" {
		return nil, errors.New("dynamodb table is required")
	}
	cfg := &aws.Config{Region: aws.String(region)}
	if endpoint != "" {
		cfg.Endpoint = aws.String(endpoint)
	}
	sess, err := session.NewSession(cfg)
	if err != nil {
		return nil, fmt.Errorf("create dynamodb session: %w", err)
	}
	return NewMirrorWithClient(dynamodb.New(sess), table), nil
}

func NewMirrorWithClient(client dynamodbiface.DynamoDBAPI, table string) *Mirror {
	return &Mirror{client: client, table: table}
}

// Put writes run, replacing any previous copy.
func (m *Mirror) Put(ctx context.Context, run Run) error {
	item, err := dynamodbattribute.MarshalMap(toRemote(run))
	if err != nil {
		return fmt.Errorf("marshal run %s: %w", run.ID, err)
	}
	_, err = m.client.PutItemWithContext(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(m.table),
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("put run %s: %w", run.ID, err)
	}
	return nil
}

// Mirrored returns the subset of ids present in the table. Keys DynamoDB
// leaves unprocessed are retried with backoff.
func (m *Mirror) Mirrored(ctx context.Context, ids []string) (map[string]bool, error) {
	res := make(map[string]bool, len(ids))
	unique := make([]string, 0, len(ids))
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			unique = append(unique, id)
		}
	}

	for start := 0; start < len(unique); start += maxBatchGet {
		end := min(start+maxBatchGet, len(unique))

		keys := make([]map[string]*dynamodb.AttributeValue, 0, end-start)
		for _, id := range unique[start:end] {
			keys = append(keys, map[string]*dynamodb.AttributeValue{
				"PK": {S: aws.String(id)},
			})
		}
		request := map[string]*dynamodb.KeysAndAttributes{
			m.table: {
				Keys:                 keys,
				ProjectionExpression: aws.String("PK"),
			},
		}
		if err := m.batchGet(ctx, request, res); err != nil {
			return nil, err
		}
	}
	return res, nil
}

func (m *Mirror) batchGet(ctx context.Context, request map[string]*dynamodb.KeysAndAttributes, res map[string]bool) error {
	for attempt := 0; ; attempt++ {
		out, err := m.client.BatchGetItemWithContext(ctx, &dynamodb.BatchGetItemInput{RequestItems: request})
		if err != nil {
			return fmt.Errorf("batch get runs: %w", err)
		}
		for _, item := range out.Responses[m.table] {
			if pk, ok := item["PK"]; ok && pk.S != nil {
				res[*pk.S] = true
			}
		}

		pending := out.UnprocessedKeys[m.table]
		if pending == nil || len(pending.Keys) == 0 {
			return nil
		}
		if attempt+1 >= maxBatchAttempts {
			return fmt.Errorf("batch get runs: %d keys still unprocessed after %d attempts", len(pending.Keys), maxBatchAttempts)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(batchBackoff << attempt):
		}
		request = map[string]*dynamodb.KeysAndAttributes{m.table: pending}
	}
}

func toRemote(run Run) remoteRun {
	return remoteRun{
		PK:              run.ID,
		Checkpoint:      run.Checkpoint,
		Optimizer:       run.Optimizer,
		Epochs:          run.Epochs,
		BatchSize:       run.BatchSize,
		LearningRate:    run.LearningRate,
		Momentum:        run.Momentum,
		Gamma:           run.Gamma,
		Clean:           run.Clean,
		Downbeat:        run.Downbeat,
		BestEpoch:       run.BestEpoch,
		BestDevAccuracy: run.BestDevAccuracy,
		EpochsRun:       run.EpochsRun,
		StoppedEarly:    run.StoppedEarly,
		StopReason:      run.StopReason,
		TestAccuracy:    run.TestAccuracy,
		StartedAt:       run.StartedAt.UTC().Format(timeLayout),
		DurationMs:      run.Duration.Milliseconds(),
	}
}
