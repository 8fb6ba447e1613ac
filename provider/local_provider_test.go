package provider

import (
	"context"
	"errors"
	"net"
	"os"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/cloud66-oss/ipgeo/geodb"
	"github.com/cloud66-oss/ipgeo/utils"
)

type mockGeoReader struct {
	mock.Mock
}

var _ GeoReader = &mockGeoReader{}

func (m *mockGeoReader) LookupASN(ip net.IP) (*geodb.ASNRecord, int, error) {
	args := m.Called(ip.String())
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).(*geodb.ASNRecord), args.Int(1), args.Error(2)
}

func (m *mockGeoReader) LookupCity(ip net.IP) (*geodb.CityRecord, int, error) {
	args := m.Called(ip.String())
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).(*geodb.CityRecord), args.Int(1), args.Error(2)
}

func (m *mockGeoReader) LookupCountry(ip net.IP) (*geodb.CountryRecord, int, error) {
	args := m.Called(ip.String())
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).(*geodb.CountryRecord), args.Int(1), args.Error(2)
}

type localProviderTestSuite struct {
	suite.Suite
	reader   *mockGeoReader
	provider *LocalProvider
}

func (suite *localProviderTestSuite) SetupTest() {
	zerolog.SetGlobalLevel(zerolog.TraceLevel)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, NoColor: true})

	suite.reader = &mockGeoReader{}
	suite.provider = NewLocalProvider(suite.reader, nil, nil, "CN")
}

func chinaCity() *geodb.CityRecord {
	cn := &geodb.Country{IsoCode: "CN", Names: map[string]string{"en": "China", "zh-CN": "中国"}}

	return &geodb.CityRecord{
		Location:          &geodb.Location{Latitude: 22.5431, Longitude: 114.0579, TimeZone: "Asia/Shanghai"},
		Country:           cn,
		RegisteredCountry: cn,
		Subdivisions: []geodb.Place{
			{Names: map[string]string{"en": "Guangdong", "zh-CN": "广东"}},
		},
		City: &geodb.Place{Names: map[string]string{"en": "Shenzhen", "zh-CN": "深圳"}},
	}
}

func (suite *localProviderTestSuite) TestInvalidAddress() {
	_, err := suite.provider.Lookup(context.Background(), "300.1.1.1", "")

	var ipErr *utils.IpAddressError
	suite.ErrorAs(err, &ipErr)
	suite.reader.AssertNotCalled(suite.T(), "LookupASN", mock.Anything)
}

func (suite *localProviderTestSuite) TestCityMiss() {
	suite.reader.On("LookupASN", "10.1.2.3").Return(nil, 8, nil)
	suite.reader.On("LookupCity", "10.1.2.3").Return(nil, 8, nil)

	info, err := suite.provider.Lookup(context.Background(), "10.1.2.3", "")
	suite.Require().NoError(err)

	suite.Equal("10.1.2.3", info.IP)
	suite.Equal("10.0.0.0/8", info.Addr)
	suite.Empty(info.CountryCode)
	suite.Empty(info.ASNumber)
	suite.reader.AssertNotCalled(suite.T(), "LookupCountry", mock.Anything)
}

func (suite *localProviderTestSuite) TestForeignAddress() {
	us := &geodb.Country{IsoCode: "US", Names: map[string]string{"en": "United States", "zh-CN": "美国"}}
	suite.reader.On("LookupASN", "8.8.8.8").Return(&geodb.ASNRecord{
		AutonomousSystemNumber:       15169,
		AutonomousSystemOrganization: "GOOGLE",
	}, 24, nil)
	suite.reader.On("LookupCity", "8.8.8.8").Return(&geodb.CityRecord{
		Location:          &geodb.Location{Latitude: 37.751, Longitude: -97.822},
		Country:           us,
		RegisteredCountry: us,
	}, 18, nil)

	info, err := suite.provider.Lookup(context.Background(), "8.8.8.8", "")
	suite.Require().NoError(err)

	suite.Equal("8.8.0.0/18", info.Addr)
	suite.Equal("15169", info.ASNumber)
	suite.Equal("GOOGLE", info.ASName)
	suite.Equal("谷歌云", info.ASInfo)
	suite.Equal("US", info.CountryCode)
	suite.Equal("美国", info.CountryName)
	suite.Equal("US", info.RegisteredCountryCode)
	suite.Equal("37.751", info.Latitude)
	suite.Equal("-97.822", info.Longitude)
	suite.Empty(info.Regions)
	suite.Empty(info.Province)
	suite.reader.AssertNotCalled(suite.T(), "LookupCountry", mock.Anything)
}

func (suite *localProviderTestSuite) TestLanguageHint() {
	suite.reader.On("LookupASN", "1.2.3.4").Return(nil, 0, nil)
	suite.reader.On("LookupCity", "1.2.3.4").Return(chinaCity(), 24, nil)
	suite.reader.On("LookupCountry", "1.2.3.4").Return(nil, 0, nil)

	info, err := suite.provider.Lookup(context.Background(), "1.2.3.4", "en")
	suite.Require().NoError(err)

	suite.Equal("China", info.CountryName)
	suite.Equal("Guangdong,Shenzhen", info.Regions)
	suite.Equal("Guangdong", info.Province)
	suite.Equal("Shenzhen", info.City)
	suite.Equal("Asia/Shanghai", info.Timezone)
}

func (suite *localProviderTestSuite) TestJurisdictionOverride() {
	suite.reader.On("LookupASN", "1.2.3.4").Return(&geodb.ASNRecord{
		AutonomousSystemNumber:       64512,
		AutonomousSystemOrganization: "Example Backbone",
	}, 16, nil)
	suite.reader.On("LookupCity", "1.2.3.4").Return(chinaCity(), 16, nil)
	suite.reader.On("LookupCountry", "1.2.3.4").Return(&geodb.CountryRecord{
		Province: "广东",
		City:     "广州",
		District: "天河",
		ISP:      "电信",
		Net:      "宽带",
	}, 24, nil)

	info, err := suite.provider.Lookup(context.Background(), "1.2.3.4", "")
	suite.Require().NoError(err)

	suite.Equal("1.2.3.0/24", info.Addr)
	suite.Equal("广东,广州,天河", info.Regions)
	// province and city from the city database are kept
	suite.Equal("广东", info.Province)
	suite.Equal("深圳", info.City)
	suite.Equal("电信", info.ASInfo)
	suite.Equal("宽带", info.Type)
	suite.Equal("22.5431", info.Latitude)
}

func (suite *localProviderTestSuite) TestJurisdictionOverrideKeepsOperator() {
	suite.reader.On("LookupASN", "1.2.3.4").Return(&geodb.ASNRecord{
		AutonomousSystemNumber:       4134,
		AutonomousSystemOrganization: "CHINANET-BACKBONE",
	}, 16, nil)
	suite.reader.On("LookupCity", "1.2.3.4").Return(&geodb.CityRecord{
		Country: &geodb.Country{IsoCode: "CN", Names: map[string]string{"zh-CN": "中国"}},
	}, 16, nil)
	suite.reader.On("LookupCountry", "1.2.3.4").Return(&geodb.CountryRecord{
		Province: "北京",
		City:     "北京",
		ISP:      "电信",
	}, 20, nil)

	info, err := suite.provider.Lookup(context.Background(), "1.2.3.4", "")
	suite.Require().NoError(err)

	suite.Equal("1.2.0.0/20", info.Addr)
	suite.Equal("中国电信", info.ASInfo)
	suite.Equal("北京", info.Regions)
	suite.Equal("北京", info.Province)
	suite.Empty(info.City)
	suite.Empty(info.Type)
}

func (suite *localProviderTestSuite) TestForeignRegisteredCountrySkipsOverride() {
	city := chinaCity()
	city.RegisteredCountry = &geodb.Country{IsoCode: "US", Names: map[string]string{"en": "United States"}}

	suite.reader.On("LookupASN", "1.2.3.4").Return(nil, 0, nil)
	suite.reader.On("LookupCity", "1.2.3.4").Return(city, 16, nil)

	info, err := suite.provider.Lookup(context.Background(), "1.2.3.4", "")
	suite.Require().NoError(err)

	suite.Equal("广东,深圳", info.Regions)
	suite.Equal("United States", info.RegisteredCountryName)
	suite.reader.AssertNotCalled(suite.T(), "LookupCountry", mock.Anything)
}

func (suite *localProviderTestSuite) TestSpecialRegionName() {
	hk := &geodb.Country{IsoCode: "HK", Names: map[string]string{"en": "Hong Kong", "zh-CN": "香港"}}
	suite.reader.On("LookupASN", "1.2.3.4").Return(nil, 0, nil)
	suite.reader.On("LookupCity", "1.2.3.4").Return(&geodb.CityRecord{
		Country: hk,
		City:    &geodb.Place{Names: map[string]string{"en": "Hong Kong", "zh-CN": "香港"}},
	}, 24, nil)

	info, err := suite.provider.Lookup(context.Background(), "1.2.3.4", "")
	suite.Require().NoError(err)

	suite.Equal("中国香港", info.CountryName)
	// the city repeats the country and is dropped
	suite.Empty(info.Regions)
}

func (suite *localProviderTestSuite) TestOverrideFailureIsIgnored() {
	suite.reader.On("LookupASN", "1.2.3.4").Return(nil, 0, nil)
	suite.reader.On("LookupCity", "1.2.3.4").Return(chinaCity(), 16, nil)
	suite.reader.On("LookupCountry", "1.2.3.4").Return(nil, 0, errors.New("corrupt record"))

	info, err := suite.provider.Lookup(context.Background(), "1.2.3.4", "")
	suite.Require().NoError(err)

	suite.Equal("1.2.0.0/16", info.Addr)
	suite.Equal("广东,深圳", info.Regions)
}

func (suite *localProviderTestSuite) TestReaderError() {
	suite.reader.On("LookupASN", "1.2.3.4").Return(nil, 0, errors.New("corrupt database"))

	_, err := suite.provider.Lookup(context.Background(), "1.2.3.4", "")
	suite.ErrorContains(err, "corrupt database")
}

func TestLocalProviderTestSuite(t *testing.T) {
	suite.Run(t, new(localProviderTestSuite))
}
