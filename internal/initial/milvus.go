package initial

import (
	"context"
	"fmt"
	"strings"

	"MediVision/internal/config"

	mclient "github.com/milvus-io/milvus-sdk-go/v2/client"
)

// NewMilvusClient connects to Milvus and makes sure the configured database
// exists. Collection schemas are owned by the vector store gateway, not
// here. The client is shared by every component and closed by main.
func NewMilvusClient(ctx context.Context, conf *config.Config) (mclient.Client, error) {
	addr := strings.TrimSpace(conf.MilvusConfig.Address)
	if addr == "" {
		return nil, fmt.Errorf("milvus address is empty")
	}
	dbName := strings.TrimSpace(conf.MilvusConfig.DBName)
	if dbName == "" {
		dbName = "medivision"
	}

	defaultCli, err := mclient.NewClient(ctx, mclient.Config{
		Address:  addr,
		Username: strings.TrimSpace(conf.MilvusConfig.Username),
		Password: strings.TrimSpace(conf.MilvusConfig.Password),
		DBName:   "default",
	})
	if err != nil {
		return nil, fmt.Errorf("connect milvus: %w", err)
	}

	dbs, err := defaultCli.ListDatabases(ctx)
	if err != nil {
		_ = defaultCli.Close()
		return nil, fmt.Errorf("list milvus databases: %w", err)
	}
	exists := false
	for _, db := range dbs {
		if db.Name == dbName {
			exists = true
			break
		}
	}
	if !exists {
		if err := defaultCli.CreateDatabase(ctx, dbName); err != nil {
			_ = defaultCli.Close()
			return nil, fmt.Errorf("create milvus database %s: %w", dbName, err)
		}
	}
	_ = defaultCli.Close()

	cli, err := mclient.NewClient(ctx, mclient.Config{
		Address:  addr,
		Username: strings.TrimSpace(conf.MilvusConfig.Username),
		Password: strings.TrimSpace(conf.MilvusConfig.Password),
		DBName:   dbName,
	})
	if err != nil {
		return nil, fmt.Errorf("connect milvus db %s: %w", dbName, err)
	}
	return cli, nil
}
