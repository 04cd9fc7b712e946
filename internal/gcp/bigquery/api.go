// Package bigquery creates the markup dataset, loads reference tables and runs
// the view scripts as jobs.
package bigquery

import (
	"context"
	"errors"
	"io"
	"net/http"

	bq "cloud.google.com/go/bigquery"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// Job is a snapshot of a BigQuery job's status.
type Job struct {
	ID       string
	Location string
	State    bq.State
	Err      *bq.Error
}

type API interface {
	DatasetExists(ctx context.Context, dataset string) (bool, error)
	CreateDataset(ctx context.Context, dataset, location string) error
	LoadCSV(ctx context.Context, dataset, table, location string, r io.Reader) (*Job, error)
	Query(ctx context.Context, sql, location string) (*Job, error)
	GetJob(ctx context.Context, id, location string) (*Job, error)
	Close() error
}

type client struct {
	*bq.Client
}

func NewAPI(ctx context.Context, project string, opts ...option.ClientOption) (API, error) {
	c, err := bq.NewClient(ctx, project, opts...)
	if err != nil {
		return nil, err
	}
	return &client{c}, nil
}

func (c *client) DatasetExists(ctx context.Context, dataset string) (bool, error) {
	_, err := c.Dataset(dataset).Metadata(ctx)
	if err == nil {
		return true, nil
	}

	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) && apiErr.Code == http.StatusNotFound {
		return false, nil
	}
	return false, err
}

func (c *client) CreateDataset(ctx context.Context, dataset, location string) error {
	return c.Dataset(dataset).Create(ctx, &bq.DatasetMetadata{Location: location})
}

func (c *client) LoadCSV(ctx context.Context, dataset, table, location string, r io.Reader) (*Job, error) {
	src := bq.NewReaderSource(r)
	src.SourceFormat = bq.CSV
	src.SkipLeadingRows = 1
	src.AutoDetect = true

	loader := c.Dataset(dataset).Table(table).LoaderFrom(src)
	loader.WriteDisposition = bq.WriteTruncate
	loader.Location = location

	job, err := loader.Run(ctx)
	if err != nil {
		return nil, err
	}
	return &Job{ID: job.ID(), Location: job.Location(), State: bq.Pending}, nil
}

func (c *client) Query(ctx context.Context, sql, location string) (*Job, error) {
	q := c.Client.Query(sql)
	q.Location = location

	job, err := q.Run(ctx)
	if err != nil {
		return nil, err
	}
	return &Job{ID: job.ID(), Location: job.Location(), State: bq.Pending}, nil
}

func (c *client) GetJob(ctx context.Context, id, location string) (*Job, error) {
	job, err := c.JobFromIDLocation(ctx, id, location)
	if err != nil {
		return nil, err
	}

	status, err := job.Status(ctx)
	if err != nil {
		return nil, err
	}

	res := &Job{ID: id, Location: location, State: status.State}
	if jobErr := status.Err(); jobErr != nil {
		var bqErr *bq.Error
		if errors.As(jobErr, &bqErr) {
			res.Err = bqErr
		} else {
			res.Err = &bq.Error{Message: jobErr.Error()}
		}
	}
	return res, nil
}
