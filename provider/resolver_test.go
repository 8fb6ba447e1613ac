package provider

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/cloud66-oss/ipgeo/utils"
)

type mockLocal struct {
	mock.Mock
}

func (ml *mockLocal) Lookup(ctx context.Context, address string, lang string) (*utils.GeoRecord, error) {
	args := ml.Called(address, lang)

	if fn, ok := args.Get(0).(func()); ok {
		fn()
	}

	if rec, ok := args.Get(0).(*utils.GeoRecord); ok {
		return rec, args.Error(1)
	}

	return nil, args.Error(1)
}

type mockAggregator struct {
	mock.Mock
}

func (ma *mockAggregator) Aggregate(ctx context.Context, address string, opts AggregateOptions) *utils.GeoRecord {
	args := ma.Called(address, opts)

	if fn, ok := args.Get(0).(func()); ok {
		fn()
	}

	if rec, ok := args.Get(0).(*utils.GeoRecord); ok {
		return rec
	}

	return nil
}

type resolverTestSuite struct {
	suite.Suite

	local  *mockLocal
	remote *mockAggregator
}

func (suite *resolverTestSuite) SetupTest() {
	suite.local = &mockLocal{}
	suite.remote = &mockAggregator{}
}

func (suite *resolverTestSuite) resolver(opts ResolverOptions) *Resolver {
	if opts.Remote == nil {
		opts.Remote = suite.remote
	}

	return NewResolver(suite.local, opts)
}

func (suite *resolverTestSuite) TestInvalidAddress() {
	_, err := suite.resolver(ResolverOptions{}).Resolve(context.Background(), "not-an-ip", ResolveOptions{})

	var addrErr *utils.IpAddressError
	suite.ErrorAs(err, &addrErr)
	suite.Equal("not-an-ip", addrErr.Address)

	suite.local.AssertNotCalled(suite.T(), "Lookup", mock.Anything, mock.Anything)
	suite.remote.AssertNotCalled(suite.T(), "Aggregate", mock.Anything, mock.Anything)
}

func (suite *resolverTestSuite) TestRemoteFailedLocalOnlyData() {
	suite.remote.On("Aggregate", "1.2.3.4", AggregateOptions{MaxSources: 3, Lang: "zh-CN"}).
		Return(utils.NewGeoRecord("1.2.3.4"))
	suite.local.On("Lookup", "1.2.3.4", "").Return(&utils.GeoRecord{
		Addr:        "1.2.3.0/24",
		CountryCode: "CN",
		CountryName: "中国",
		Province:    "广东",
		City:        "广州",
		Regions:     "广东,广州,天河",
	}, nil)

	info, err := suite.resolver(ResolverOptions{
		RemoteOptions: AggregateOptions{MaxSources: 3, Lang: "zh-CN"},
	}).Resolve(context.Background(), "1.2.3.4", ResolveOptions{})

	suite.NoError(err)
	suite.Equal(utils.GeoRecord{
		IP:          "1.2.3.4",
		Addr:        "1.2.3.0/24",
		CountryCode: "CN",
		CountryName: "中国",
		Province:    "广东",
		City:        "广州",
		Regions:     "广东,广州,天河",
	}, *info)
}

func (suite *resolverTestSuite) TestRemoteWinsLocalFillsGaps() {
	suite.remote.On("Aggregate", "8.8.8.8", AggregateOptions{Lang: "en"}).Return(&utils.GeoRecord{
		IP:       "8.8.8.8",
		City:     "Mountain View",
		ASNumber: "15169",
	})
	suite.local.On("Lookup", "8.8.8.8", "en").Return(&utils.GeoRecord{
		City:     "Ashburn",
		Province: "Virginia",
		ASName:   "GOOGLE",
		ASInfo:   "谷歌云",
		Addr:     "8.8.8.0/24",
	}, nil)

	info, err := suite.resolver(ResolverOptions{}).Resolve(context.Background(), " 8.8.8.8 ", ResolveOptions{Lang: "en"})

	suite.NoError(err)
	suite.Equal("8.8.8.8", info.IP)
	suite.Equal("Mountain View", info.City)
	suite.Equal("Virginia", info.Province)
	suite.Equal("15169", info.ASNumber)
	suite.Equal("谷歌云", info.ASInfo)
	suite.Equal("8.8.8.0/24", info.Addr)
	suite.Equal("Virginia,Mountain View", info.Regions)
}

func (suite *resolverTestSuite) TestLocalFailureIsIsolated() {
	suite.remote.On("Aggregate", "9.9.9.9", mock.Anything).Return(&utils.GeoRecord{IP: "9.9.9.9", CountryCode: "US"})
	suite.local.On("Lookup", "9.9.9.9", "").Return(nil, errors.New("corrupt database"))

	info, err := suite.resolver(ResolverOptions{}).Resolve(context.Background(), "9.9.9.9", ResolveOptions{})

	suite.NoError(err)
	suite.Equal("US", info.CountryCode)
	suite.Equal("9.9.9.9", info.IP)
}

func (suite *resolverTestSuite) TestLocalPanicIsIsolated() {
	suite.remote.On("Aggregate", "9.9.9.9", mock.Anything).Return(&utils.GeoRecord{IP: "9.9.9.9", City: "Zurich"})
	suite.local.On("Lookup", "9.9.9.9", "").Return(func() { panic("boom") }, nil)

	info, err := suite.resolver(ResolverOptions{}).Resolve(context.Background(), "9.9.9.9", ResolveOptions{})

	suite.NoError(err)
	suite.Equal("Zurich", info.City)
	suite.Equal("Zurich", info.Regions)
}

func (suite *resolverTestSuite) TestRemotePanicIsIsolated() {
	suite.remote.On("Aggregate", "9.9.9.9", mock.Anything).Return(func() { panic("boom") })
	suite.local.On("Lookup", "9.9.9.9", "").Return(&utils.GeoRecord{CountryCode: "CH"}, nil)

	info, err := suite.resolver(ResolverOptions{}).Resolve(context.Background(), "9.9.9.9", ResolveOptions{})

	suite.NoError(err)
	suite.Equal("9.9.9.9", info.IP)
	suite.Equal("CH", info.CountryCode)
}

func (suite *resolverTestSuite) TestLocalOnly() {
	suite.local.On("Lookup", "2001:db8::1", "").Return(&utils.GeoRecord{Addr: "2001:db8::/32"}, nil)

	info, err := suite.resolver(ResolverOptions{}).Resolve(context.Background(), "2001:DB8::1", ResolveOptions{LocalOnly: true})

	suite.NoError(err)
	suite.Equal("2001:db8::1", info.IP)
	suite.Equal("2001:db8::/32", info.Addr)
	suite.remote.AssertNotCalled(suite.T(), "Aggregate", mock.Anything, mock.Anything)
}

func (suite *resolverTestSuite) TestWithoutRemote() {
	suite.local.On("Lookup", "1.1.1.1", "").Return(&utils.GeoRecord{CountryCode: "AU"}, nil)

	info, err := NewResolver(suite.local, ResolverOptions{}).Resolve(context.Background(), "1.1.1.1", ResolveOptions{})

	suite.NoError(err)
	suite.Equal("AU", info.CountryCode)
	suite.Equal("1.1.1.1", info.IP)
}

func (suite *resolverTestSuite) TestLocalFirstInJurisdiction() {
	suite.remote.On("Aggregate", mock.Anything, mock.Anything).Return(&utils.GeoRecord{
		City:        "Beijing",
		CountryCode: "CN",
		Timezone:    "Asia/Shanghai",
	})
	suite.local.On("Lookup", "1.2.3.4", "").Return(&utils.GeoRecord{City: "广州", CountryCode: "CN"}, nil)
	suite.local.On("Lookup", "5.6.7.8", "").Return(&utils.GeoRecord{City: "Tokyo", CountryCode: "JP"}, nil)

	r := suite.resolver(ResolverOptions{Jurisdiction: "cn", LocalFirst: true})

	info, err := r.Resolve(context.Background(), "1.2.3.4", ResolveOptions{})
	suite.NoError(err)
	suite.Equal("广州", info.City)
	suite.Equal("Asia/Shanghai", info.Timezone)
	suite.Equal("1.2.3.4", info.IP)

	info, err = r.Resolve(context.Background(), "5.6.7.8", ResolveOptions{})
	suite.NoError(err)
	suite.Equal("Beijing", info.City)
}

func (suite *resolverTestSuite) TestRegionsKeptFromSources() {
	suite.remote.On("Aggregate", "1.2.3.4", mock.Anything).Return(&utils.GeoRecord{Province: "Ontario"})
	suite.local.On("Lookup", "1.2.3.4", "").Return(&utils.GeoRecord{Regions: "Ontario,Toronto,York"}, nil)

	info, err := suite.resolver(ResolverOptions{}).Resolve(context.Background(), "1.2.3.4", ResolveOptions{})

	suite.NoError(err)
	suite.Equal("Ontario,Toronto,York", info.Regions)
}

func TestResolverTestSuite(t *testing.T) {
	suite.Run(t, new(resolverTestSuite))
}
