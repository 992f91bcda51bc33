package api

import (
	"bytes"
	"net/http/httptest"
	"testing"

	"budget/config"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCategoryHandler_Update_SystemCategory(t *testing.T) {
	mock, cleanup := setupMockDB(t)
	defer cleanup()

	cfg := testConfig()
	config.GlobalConfig = cfg
	defer func() { config.GlobalConfig = nil }()

	// 系统转账类别不可修改
	mock.ExpectQuery("SELECT .* FROM `categories`").
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "group_id", "name", "is_system"}).
			AddRow(9, nil, 4, "转账", true))

	router := setupAuthedRouter(1)
	h := NewCategoryHandler()
	router.PUT("/categories/:id", h.Update)

	body := `{"name":"改名"}`
	req := httptest.NewRequest("PUT", "/categories/9", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, 400, w.Code)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCategoryHandler_Delete_OtherUsersCategory(t *testing.T) {
	mock, cleanup := setupMockDB(t)
	defer cleanup()

	cfg := testConfig()
	config.GlobalConfig = cfg
	defer func() { config.GlobalConfig = nil }()

	// 他人类别按不存在处理
	mock.ExpectQuery("SELECT .* FROM `categories`").
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "group_id", "name", "is_system"}).
			AddRow(12, 99, 5, "餐饮", false))

	router := setupAuthedRouter(1)
	h := NewCategoryHandler()
	router.DELETE("/categories/:id", h.Delete)

	req := httptest.NewRequest("DELETE", "/categories/12", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, 404, w.Code)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCategoryHandler_Create_DuplicateName(t *testing.T) {
	mock, cleanup := setupMockDB(t)
	defer cleanup()

	cfg := testConfig()
	config.GlobalConfig = cfg
	defer func() { config.GlobalConfig = nil }()

	// 分组属于当前用户
	mock.ExpectQuery("SELECT .* FROM `category_groups`").
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "name"}).AddRow(5, 1, "日常支出"))
	// 同分组下已有同名类别
	mock.ExpectQuery("SELECT .* FROM `categories`").
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "group_id", "name"}).
			AddRow(12, 1, 5, "宠物"))

	router := setupAuthedRouter(1)
	h := NewCategoryHandler()
	router.POST("/categories", h.Create)

	body := `{"group_id":5,"name":"宠物","type":"expense"}`
	req := httptest.NewRequest("POST", "/categories", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, 409, w.Code)
	require.NoError(t, mock.ExpectationsWereMet())
}
