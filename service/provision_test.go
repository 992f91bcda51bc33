package service

import (
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProvisionService_HandleUserCreated_Existing(t *testing.T) {
	mock, cleanup := setupMockDB(t)
	defer cleanup()

	// 按外部ID命中已有用户，不再创建
	mock.ExpectQuery("SELECT .* FROM `users`").
		WillReturnRows(sqlmock.NewRows([]string{"id", "username", "external_id", "status"}).
			AddRow(3, "alice", "ext-001", "active"))
	// 已有类别，默认初始化跳过
	mock.ExpectQuery("SELECT count\\(\\*\\) FROM `categories`").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(5))

	svc := NewProvisionService()
	user, err := svc.HandleUserCreated("ext-001", "alice", "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, uint(3), user.ID)
	assert.Equal(t, "alice", user.Username)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestProvisionService_HandleUserCreated_New(t *testing.T) {
	mock, cleanup := setupMockDB(t)
	defer cleanup()

	// 外部ID未命中，创建新用户
	mock.ExpectQuery("SELECT .* FROM `users`").
		WillReturnRows(sqlmock.NewRows([]string{}))
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO `users`").
		WillReturnResult(sqlmock.NewResult(7, 1))
	mock.ExpectCommit()
	// 新用户无类别，复制系统默认分组
	mock.ExpectQuery("SELECT count\\(\\*\\) FROM `categories`").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery("SELECT .* FROM `category_groups`").
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "name", "sort"}).
			AddRow(1, nil, "日常支出", 1))
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT .* FROM `categories`").
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "group_id", "name", "color", "type", "is_system"}).
			AddRow(1, nil, 1, "餐饮", "#f59e0b", "expense", false))
	mock.ExpectExec("INSERT INTO `category_groups`").
		WillReturnResult(sqlmock.NewResult(10, 1))
	mock.ExpectExec("INSERT INTO `categories`").
		WillReturnResult(sqlmock.NewResult(20, 1))
	mock.ExpectCommit()

	svc := NewProvisionService()
	user, err := svc.HandleUserCreated("ext-002", "", "bob@example.com")
	require.NoError(t, err)
	// 未提供用户名时按外部ID派生
	assert.Equal(t, "user_ext-002", user.Username)
	require.NotNil(t, user.ExternalID)
	assert.Equal(t, "ext-002", *user.ExternalID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestProvisionService_HandleUserCreated_EmptyExternalID(t *testing.T) {
	svc := NewProvisionService()
	_, err := svc.HandleUserCreated("", "alice", "")
	require.Error(t, err)
	assert.Equal(t, KindValidation, KindOf(err))
}

func TestProvisionService_InitializeUserDefaults_Idempotent(t *testing.T) {
	mock, cleanup := setupMockDB(t)
	defer cleanup()

	// 已有类别时不做任何写入
	mock.ExpectQuery("SELECT count\\(\\*\\) FROM `categories`").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))

	svc := NewProvisionService()
	require.NoError(t, svc.InitializeUserDefaults(1))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestProvisionService_InitializeUserDefaults_SkipsSystemOnlyGroup(t *testing.T) {
	mock, cleanup := setupMockDB(t)
	defer cleanup()

	mock.ExpectQuery("SELECT count\\(\\*\\) FROM `categories`").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery("SELECT .* FROM `category_groups`").
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "name", "sort"}).
			AddRow(4, nil, "系统", 99))
	mock.ExpectBegin()
	// "系统"分组下只有系统转账类别，过滤后为空，不复制
	mock.ExpectQuery("SELECT .* FROM `categories`").
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "group_id", "name", "color", "type", "is_system"}))
	mock.ExpectCommit()

	svc := NewProvisionService()
	require.NoError(t, svc.InitializeUserDefaults(1))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestProvisionService_HandleUserDeleted(t *testing.T) {
	mock, cleanup := setupMockDB(t)
	defer cleanup()

	mock.ExpectQuery("SELECT .* FROM `users`").
		WillReturnRows(sqlmock.NewRows([]string{"id", "username", "external_id"}).
			AddRow(3, "alice", "ext-001"))
	mock.ExpectBegin()
	// 软删除类别、分组与用户本身
	mock.ExpectExec("UPDATE `categories`").
		WillReturnResult(sqlmock.NewResult(0, 8))
	mock.ExpectExec("UPDATE `category_groups`").
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec("UPDATE `users`").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	svc := NewProvisionService()
	require.NoError(t, svc.HandleUserDeleted("ext-001"))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestProvisionService_HandleUserDeleted_Unknown(t *testing.T) {
	mock, cleanup := setupMockDB(t)
	defer cleanup()

	// 未知外部ID直接忽略，不产生写入
	mock.ExpectQuery("SELECT .* FROM `users`").
		WillReturnRows(sqlmock.NewRows([]string{}))

	svc := NewProvisionService()
	require.NoError(t, svc.HandleUserDeleted("ext-unknown"))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestProvisionService_HandleUserDeleted_EmptyExternalID(t *testing.T) {
	svc := NewProvisionService()
	err := svc.HandleUserDeleted("")
	require.Error(t, err)
	assert.Equal(t, KindValidation, KindOf(err))
}
