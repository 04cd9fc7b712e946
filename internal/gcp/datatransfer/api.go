// Package datatransfer manages BigQuery data transfer configs and waits for
// their runs.
package datatransfer

import (
	"context"
	"errors"

	dts "cloud.google.com/go/bigquery/datatransfer/apiv1"
	"cloud.google.com/go/bigquery/datatransfer/apiv1/datatransferpb"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

// API is the part of the data transfer service used by markup.
type API interface {
	ListTransferConfigs(ctx context.Context, parent string, dataSourceIDs []string) ([]*datatransferpb.TransferConfig, error)
	CreateTransferConfig(ctx context.Context, req *datatransferpb.CreateTransferConfigRequest) (*datatransferpb.TransferConfig, error)
	GetTransferConfig(ctx context.Context, name string) (*datatransferpb.TransferConfig, error)
	LatestTransferRun(ctx context.Context, parent string) (*datatransferpb.TransferRun, error)
	StartManualTransferRuns(ctx context.Context, req *datatransferpb.StartManualTransferRunsRequest) ([]*datatransferpb.TransferRun, error)
	CheckValidCreds(ctx context.Context, name string) (bool, error)
	GetDataSource(ctx context.Context, name string) (*datatransferpb.DataSource, error)
	Close() error
}

type client struct {
	*dts.Client
}

func NewAPI(ctx context.Context, opts ...option.ClientOption) (API, error) {
	c, err := dts.NewClient(ctx, opts...)
	if err != nil {
		return nil, err
	}
	return &client{c}, nil
}

func (c *client) ListTransferConfigs(ctx context.Context, parent string, dataSourceIDs []string) ([]*datatransferpb.TransferConfig, error) {
	it := c.Client.ListTransferConfigs(ctx, &datatransferpb.ListTransferConfigsRequest{
		Parent:        parent,
		DataSourceIds: dataSourceIDs,
	})

	var configs []*datatransferpb.TransferConfig
	for {
		config, err := it.Next()
		if errors.Is(err, iterator.Done) {
			return configs, nil
		}
		if err != nil {
			return nil, err
		}
		configs = append(configs, config)
	}
}

func (c *client) CreateTransferConfig(ctx context.Context, req *datatransferpb.CreateTransferConfigRequest) (*datatransferpb.TransferConfig, error) {
	return c.Client.CreateTransferConfig(ctx, req)
}

func (c *client) GetTransferConfig(ctx context.Context, name string) (*datatransferpb.TransferConfig, error) {
	return c.Client.GetTransferConfig(ctx, &datatransferpb.GetTransferConfigRequest{Name: name})
}

// LatestTransferRun returns nil when the config has no runs yet.
func (c *client) LatestTransferRun(ctx context.Context, parent string) (*datatransferpb.TransferRun, error) {
	it := c.Client.ListTransferRuns(ctx, &datatransferpb.ListTransferRunsRequest{
		Parent:   parent,
		PageSize: 1,
	})

	run, err := it.Next()
	if errors.Is(err, iterator.Done) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return run, nil
}

func (c *client) StartManualTransferRuns(ctx context.Context, req *datatransferpb.StartManualTransferRunsRequest) ([]*datatransferpb.TransferRun, error) {
	res, err := c.Client.StartManualTransferRuns(ctx, req)
	if err != nil {
		return nil, err
	}
	return res.GetRuns(), nil
}

func (c *client) CheckValidCreds(ctx context.Context, name string) (bool, error) {
	res, err := c.Client.CheckValidCreds(ctx, &datatransferpb.CheckValidCredsRequest{Name: name})
	if err != nil {
		return false, err
	}
	return res.GetHasValidCreds(), nil
}

func (c *client) GetDataSource(ctx context.Context, name string) (*datatransferpb.DataSource, error) {
	return c.Client.GetDataSource(ctx, &datatransferpb.GetDataSourceRequest{Name: name})
}
