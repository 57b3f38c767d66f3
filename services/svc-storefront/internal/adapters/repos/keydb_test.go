package repos_test

import (
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/architeacher/storefront/pkg/logger"
	"github.com/architeacher/storefront/services/svc-storefront/internal/config"
	"github.com/architeacher/storefront/services/svc-storefront/internal/infrastructure"
	"github.com/stretchr/testify/suite"
)

// keydbSuite starts a fresh miniredis per test and points a KeydbClient at it.
type keydbSuite struct {
	suite.Suite
	miniRedis   *miniredis.Miniredis
	keydbClient *infrastructure.KeydbClient
}

func (s *keydbSuite) SetupTest() {
	var err error
	s.miniRedis, err = miniredis.Run()
	s.Require().NoError(err)

	cfg := config.Cache{
		Address:      s.miniRedis.Addr(),
		PoolSize:     5,
		DialTimeout:  time.Second,
		ReadTimeout:  time.Second,
		WriteTimeout: time.Second,
	}

	s.keydbClient = infrastructure.NewKeyDBClient(cfg, logger.NewTestLogger())
}

func (s *keydbSuite) TearDownTest() {
	if s.keydbClient != nil {
		s.keydbClient.Close()
	}

	if s.miniRedis != nil {
		s.miniRedis.Close()
	}
}
