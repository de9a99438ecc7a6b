package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/perkpass/perkpass-backend/internal/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if err := db.AutoMigrate(&models.User{}, &models.OTP{}); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	return db
}

func setupRouter(db *gorm.DB) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/api/auth/request-access", RequestAccess(db))
	r.POST("/api/auth/verify-otp", VerifyOTP(db))
	return r
}

func postJSON(t *testing.T, r *gin.Engine, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	data, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal body: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRequestAccess_NewUser(t *testing.T) {
	db := setupTestDB(t)
	r := setupRouter(db)

	before := time.Now()
	w := postJSON(t, r, "/api/auth/request-access", gin.H{"email": "a@x.com"})
	if w.Code != 200 {
		t.Fatalf("status = %d, want 200: %s", w.Code, w.Body.String())
	}

	var resp map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp["message"] != "OTP sent to your email." {
		t.Errorf("message = %q, want %q", resp["message"], "OTP sent to your email.")
	}

	var users []models.User
	if err := db.Find(&users).Error; err != nil {
		t.Fatalf("load users: %v", err)
	}
	if len(users) != 1 {
		t.Fatalf("user count = %d, want 1", len(users))
	}
	if users[0].Email != "a@x.com" {
		t.Errorf("email = %q, want a@x.com", users[0].Email)
	}
	if users[0].IsLegitimate {
		t.Error("new user should not be legitimate")
	}

	var otps []models.OTP
	if err := db.Find(&otps).Error; err != nil {
		t.Fatalf("load otps: %v", err)
	}
	if len(otps) != 1 {
		t.Fatalf("otp count = %d, want 1", len(otps))
	}
	if otps[0].Used {
		t.Error("new code should be unused")
	}
	if len(otps[0].Code) != 6 {
		t.Errorf("code %q should be 6 digits", otps[0].Code)
	}

	wantExpiry := before.Add(5 * time.Minute)
	if otps[0].ExpiresAt.Before(wantExpiry.Add(-time.Second)) || otps[0].ExpiresAt.After(wantExpiry.Add(5*time.Second)) {
		t.Errorf("expires_at = %v, want about %v", otps[0].ExpiresAt, wantExpiry)
	}
}

func TestRequestAccess_ExistingUserAppendsCode(t *testing.T) {
	db := setupTestDB(t)
	r := setupRouter(db)

	for i := 0; i < 2; i++ {
		w := postJSON(t, r, "/api/auth/request-access", gin.H{"email": "a@x.com"})
		if w.Code != 200 {
			t.Fatalf("request %d: status = %d, want 200", i, w.Code)
		}
	}

	var userCount, otpCount int64
	db.Model(&models.User{}).Count(&userCount)
	db.Model(&models.OTP{}).Count(&otpCount)
	if userCount != 1 {
		t.Errorf("user count = %d, want 1", userCount)
	}
	if otpCount != 2 {
		t.Errorf("otp count = %d, want 2", otpCount)
	}
}

func TestRequestAccess_InvalidEmail(t *testing.T) {
	db := setupTestDB(t)
	r := setupRouter(db)

	w := postJSON(t, r, "/api/auth/request-access", gin.H{"email": "not-an-email"})
	if w.Code != 400 {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestVerifyOTP_UnknownUser(t *testing.T) {
	db := setupTestDB(t)
	r := setupRouter(db)

	w := postJSON(t, r, "/api/auth/verify-otp", gin.H{"email": "nobody@x.com", "otp": "123456"})
	if w.Code != 401 {
		t.Fatalf("status = %d, want 401", w.Code)
	}

	var resp map[string]string
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp["error"] != "user not found" {
		t.Errorf("error = %q, want %q", resp["error"], "user not found")
	}
}

func TestVerifyOTP_Expired(t *testing.T) {
	db := setupTestDB(t)
	r := setupRouter(db)

	user := models.User{Email: "a@x.com"}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}
	otp := models.OTP{UserID: user.ID, Code: "123456", ExpiresAt: time.Now().Add(-time.Minute)}
	if err := db.Create(&otp).Error; err != nil {
		t.Fatalf("create otp: %v", err)
	}

	w := postJSON(t, r, "/api/auth/verify-otp", gin.H{"email": "a@x.com", "otp": "123456"})
	if w.Code != 400 {
		t.Errorf("status = %d, want 400 for expired code", w.Code)
	}
}

func TestVerifyOTP_LatestCodeWins(t *testing.T) {
	db := setupTestDB(t)
	r := setupRouter(db)

	user := models.User{Email: "a@x.com"}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}

	now := time.Now()
	old := models.OTP{UserID: user.ID, Code: "111111", ExpiresAt: now.Add(5 * time.Minute)}
	old.CreatedAt = now.Add(-time.Minute)
	if err := db.Create(&old).Error; err != nil {
		t.Fatalf("create old otp: %v", err)
	}
	latest := models.OTP{UserID: user.ID, Code: "222222", ExpiresAt: now.Add(5 * time.Minute)}
	latest.CreatedAt = now
	if err := db.Create(&latest).Error; err != nil {
		t.Fatalf("create latest otp: %v", err)
	}

	// The superseded code no longer verifies even though it is still unused
	// and unexpired.
	w := postJSON(t, r, "/api/auth/verify-otp", gin.H{"email": "a@x.com", "otp": "111111"})
	if w.Code != 400 {
		t.Errorf("old code: status = %d, want 400", w.Code)
	}

	w = postJSON(t, r, "/api/auth/verify-otp", gin.H{"email": "a@x.com", "otp": "222222"})
	if w.Code != 200 {
		t.Errorf("latest code: status = %d, want 200: %s", w.Code, w.Body.String())
	}
}

func TestIssueVerifyScenario(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	db := setupTestDB(t)
	r := setupRouter(db)

	// Issue.
	w := postJSON(t, r, "/api/auth/request-access", gin.H{"email": "a@x.com"})
	if w.Code != 200 {
		t.Fatalf("request-access: status = %d, want 200", w.Code)
	}

	var user models.User
	if err := db.Where("email = ?", "a@x.com").First(&user).Error; err != nil {
		t.Fatalf("load user: %v", err)
	}
	var otp models.OTP
	if err := db.Where("user_id = ?", user.ID).First(&otp).Error; err != nil {
		t.Fatalf("load otp: %v", err)
	}

	// Wrong code.
	w = postJSON(t, r, "/api/auth/verify-otp", gin.H{"email": "a@x.com", "otp": "000000"})
	if w.Code != 400 {
		t.Fatalf("wrong code: status = %d, want 400", w.Code)
	}

	// Right code.
	w = postJSON(t, r, "/api/auth/verify-otp", gin.H{"email": "a@x.com", "otp": otp.Code})
	if w.Code != 200 {
		t.Fatalf("right code: status = %d, want 200: %s", w.Code, w.Body.String())
	}
	var resp map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp["message"] != "User verified successfully." {
		t.Errorf("message = %q, want %q", resp["message"], "User verified successfully.")
	}
	if resp["token"] == "" {
		t.Error("expected a token after successful verification")
	}

	if err := db.First(&user, user.ID).Error; err != nil {
		t.Fatalf("reload user: %v", err)
	}
	if !user.IsLegitimate {
		t.Error("user should be legitimate after verification")
	}
	if err := db.First(&otp, otp.ID).Error; err != nil {
		t.Fatalf("reload otp: %v", err)
	}
	if !otp.Used {
		t.Error("code should be marked used after verification")
	}

	// Replay of the consumed code.
	w = postJSON(t, r, "/api/auth/verify-otp", gin.H{"email": "a@x.com", "otp": otp.Code})
	if w.Code != 400 {
		t.Errorf("replay: status = %d, want 400", w.Code)
	}
}
