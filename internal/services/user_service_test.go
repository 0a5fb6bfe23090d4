package services

import (
	"testing"

	"github.com/stretchr/testify/suite"
)

type UserServiceTestSuite struct {
	suite.Suite
	db          DBService
	userService UserService
}

func (suite *UserServiceTestSuite) SetupTest() {
	db, err := NewSqliteDBService(":memory:")
	suite.Require().NoError(err)
	suite.db = db
	suite.userService = NewUserService(db.GetDB())
}

func (suite *UserServiceTestSuite) TearDownTest() {
	suite.db.Close()
}

func (suite *UserServiceTestSuite) TestRegisterAssignsSequentialIDs() {
	id1, err := suite.userService.RegisterUser(aliceAddress)
	suite.NoError(err)
	suite.Equal(uint(1), id1)

	id2, err := suite.userService.RegisterUser(bobAddress)
	suite.NoError(err)
	suite.Equal(uint(2), id2)
}

func (suite *UserServiceTestSuite) TestDoubleRegisterFails() {
	_, err := suite.userService.RegisterUser(aliceAddress)
	suite.NoError(err)

	_, err = suite.userService.RegisterUser(aliceAddress)
	suite.ErrorIs(err, ErrAddressAlreadyRegistered)
}

func (suite *UserServiceTestSuite) TestLookupIsCaseInsensitive() {
	id, err := suite.userService.RegisterUser("0xabcdefabcdefabcdefabcdefabcdefabcdefabcd")
	suite.NoError(err)

	got, err := suite.userService.GetUserID("0xABCDEFABCDEFABCDEFABCDEFABCDEFABCDEFABCD")
	suite.NoError(err)
	suite.Equal(id, got)
}

func (suite *UserServiceTestSuite) TestGetUserIDReturnsZeroForUnknown() {
	id, err := suite.userService.GetUserID(bobAddress)
	suite.NoError(err)
	suite.Equal(uint(0), id)

	_, err = suite.userService.GetUserIDNonZero(bobAddress)
	suite.ErrorIs(err, ErrUnknownAddress)
}

func (suite *UserServiceTestSuite) TestRemovedIDsAreNeverReused() {
	id1, err := suite.userService.RegisterUser(aliceAddress)
	suite.Require().NoError(err)

	removed, err := suite.userService.RemoveUserByAddress(aliceAddress)
	suite.NoError(err)
	suite.Equal(id1, removed)

	got, err := suite.userService.GetUserID(aliceAddress)
	suite.NoError(err)
	suite.Equal(uint(0), got)

	id2, err := suite.userService.RegisterUser(aliceAddress)
	suite.NoError(err)
	suite.Greater(id2, id1)
	suite.NotEqual(id1, id2)
}

func (suite *UserServiceTestSuite) TestRemoveAbsentAddressIsNotAnError() {
	removed, err := suite.userService.RemoveUserByAddress(bobAddress)
	suite.NoError(err)
	suite.Equal(uint(0), removed)
}

func (suite *UserServiceTestSuite) TestGetOrCreateUserID() {
	id1, err := suite.userService.GetOrCreateUserID(aliceAddress)
	suite.NoError(err)
	suite.NotZero(id1)

	id2, err := suite.userService.GetOrCreateUserID(aliceAddress)
	suite.NoError(err)
	suite.Equal(id1, id2)
}

func (suite *UserServiceTestSuite) TestGetUserAddress() {
	id, err := suite.userService.RegisterUser(aliceAddress)
	suite.Require().NoError(err)

	address, err := suite.userService.GetUserAddress(id)
	suite.NoError(err)
	suite.NotEmpty(address)

	address, err = suite.userService.GetUserAddress(999)
	suite.NoError(err)
	suite.Empty(address)
}

func (suite *UserServiceTestSuite) TestRegisterRejectsInvalidAddress() {
	_, err := suite.userService.RegisterUser("not-an-address")
	suite.ErrorIs(err, ErrInvalidInput)
}

func TestUserServiceTestSuite(t *testing.T) {
	suite.Run(t, new(UserServiceTestSuite))
}
