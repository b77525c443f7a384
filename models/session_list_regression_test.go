package models_test

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/catalogodata/catalogo_backend/config"
	"github.com/catalogodata/catalogo_backend/models"
	"github.com/catalogodata/catalogo_backend/utils"
)

// Regression: the history panel renders ListSessions directly. Ordering must
// be updated_at desc with the cap applied after ordering, so a fresh create
// (or a patch to an old session) always surfaces in the first page.
func TestListSessions_OrderingAndCap(t *testing.T) {
	ctx := startIntegrationStack(t)

	ctx = utils.SetOwnerIdInContext(ctx, "owner-list-test")
	ctx = utils.SetUsernameInContext(ctx, "test@local")

	var last *models.Session
	for i := 0; i < 21; i++ {
		s, err := models.CreateSession(ctx, &models.NewSession{
			OriginalFilename: fmt.Sprintf("lista_%02d.xlsx", i),
			TotalItems:       1,
		})
		if err != nil {
			t.Fatalf("CreateSession #%d: %v", i, err)
		}
		last = s
		// updated_at is datetime(3); keep creates distinguishable
		time.Sleep(10 * time.Millisecond)
	}

	list := models.ListSessions(ctx)
	if len(list) != 20 {
		t.Fatalf("ListSessions returned %d rows, want 20", len(list))
	}
	if list[0].ID != last.ID {
		t.Fatalf("newest session not first: got %s, want %s", list[0].ID, last.ID)
	}
	for i := 1; i < len(list); i++ {
		if list[i].UpdatedAt.After(list[i-1].UpdatedAt) {
			t.Fatalf("list not updated_at desc at index %d", i)
		}
	}

	// Patching an older session must move it back to the front.
	oldest := list[len(list)-1]
	time.Sleep(10 * time.Millisecond)
	status := "processing"
	if ok := models.UpdateSession(ctx, oldest.ID, &models.SessionPatch{Status: &status}); !ok {
		t.Fatalf("UpdateSession(%s) failed", oldest.ID)
	}
	list = models.ListSessions(ctx)
	if list[0].ID != oldest.ID {
		t.Fatalf("patched session not first: got %s, want %s", list[0].ID, oldest.ID)
	}

	// Another owner sees none of this.
	otherCtx := utils.SetOwnerIdInContext(context.Background(), "owner-other")
	if got := models.ListSessions(otherCtx); len(got) != 0 {
		t.Fatalf("other owner sees %d sessions, want 0", len(got))
	}
}

// Regression: re-running a reference sync re-upserts every row; the table
// must not grow and descriptions must update in place.
func TestUpsertNcmCodes_IdempotentAtTheDatabase(t *testing.T) {
	ctx := startIntegrationStack(t)

	batch := []models.NcmCode{
		{Codigo: "84713000", Descricao: "Máquinas de processamento de dados", Tipo: "ncm"},
		{Codigo: "73181500", Descricao: "Parafusos de ferro ou aço", Tipo: "ncm"},
	}
	if err := models.UpsertNcmCodes(ctx, batch); err != nil {
		t.Fatalf("first upsert: %v", err)
	}
	before, err := models.CountNcmCodes(ctx)
	if err != nil {
		t.Fatalf("CountNcmCodes: %v", err)
	}

	batch[1].Descricao = "Parafusos, mesmo com as porcas"
	if err := models.UpsertNcmCodes(ctx, batch); err != nil {
		t.Fatalf("second upsert: %v", err)
	}
	after, err := models.CountNcmCodes(ctx)
	if err != nil {
		t.Fatalf("CountNcmCodes: %v", err)
	}
	if after != before {
		t.Fatalf("row count changed on re-upsert: %d -> %d", before, after)
	}

	code, err := models.GetNcmCode(ctx, "73181500")
	if err != nil {
		t.Fatalf("GetNcmCode: %v", err)
	}
	if code == nil || code.Descricao != "Parafusos, mesmo com as porcas" {
		t.Fatalf("upsert did not update in place: %+v", code)
	}

	missing, err := models.GetNcmCode(ctx, "00000000")
	if err != nil {
		t.Fatalf("GetNcmCode(missing): %v", err)
	}
	if missing != nil {
		t.Fatalf("unknown code returned %+v, want nil", missing)
	}
}

func startIntegrationStack(t *testing.T) context.Context {
	t.Helper()
	if strings.TrimSpace(os.Getenv("INTEGRATION_TESTS")) == "" {
		t.Skip("set INTEGRATION_TESTS=1 to run integration tests (requires docker)")
	}

	redisName, redisPort := startRedisContainer(t)
	t.Cleanup(func() { _ = dockerRmForce(redisName) })

	mysqlName, mysqlPort := startMySQLContainer(t)
	t.Cleanup(func() { _ = dockerRmForce(mysqlName) })

	t.Setenv("REDIS_ADDRESS", fmt.Sprintf("127.0.0.1:%s", redisPort))
	t.Setenv("DB_USER", "root")
	t.Setenv("DB_PASSWORD", "testpw")
	t.Setenv("DB_HOST", "127.0.0.1")
	t.Setenv("DB_PORT", mysqlPort)
	t.Setenv("DB_NAME", "catalogo_test")

	config.ConnectDatabaseWithRetry()
	config.ConnectRedisWithRetry()
	models.MigrateTable()

	return context.Background()
}

func startRedisContainer(t *testing.T) (containerName, hostPort string) {
	t.Helper()
	name := fmt.Sprintf("catalogo-test-redis-%d", time.Now().UnixNano())
	out, err := dockerRun(
		"run", "-d", "--name", name,
		"-p", "127.0.0.1:0:6379",
		"redis:7-alpine",
	)
	if err != nil {
		t.Fatalf("start redis container: %v\n%s", err, out)
	}
	port, err := dockerHostPort(name, "6379/tcp")
	if err != nil {
		t.Fatalf("redis docker port: %v", err)
	}
	deadline := time.Now().Add(60 * time.Second)
	for time.Now().Before(deadline) {
		_, err := dockerRun("exec", name, "redis-cli", "ping")
		if err == nil {
			return name, port
		}
		time.Sleep(250 * time.Millisecond)
	}
	t.Fatalf("redis did not become ready")
	return "", ""
}

func startMySQLContainer(t *testing.T) (containerName, hostPort string) {
	t.Helper()
	name := fmt.Sprintf("catalogo-test-mysql-%d", time.Now().UnixNano())
	out, err := dockerRun(
		"run", "-d", "--name", name,
		"-e", "MYSQL_ROOT_PASSWORD=testpw",
		"-e", "MYSQL_DATABASE=catalogo_test",
		"-p", "127.0.0.1:0:3306",
		"mysql:8.0",
		"--default-authentication-plugin=mysql_native_password",
	)
	if err != nil {
		t.Fatalf("start mysql container: %v\n%s", err, out)
	}
	port, err := dockerHostPort(name, "3306/tcp")
	if err != nil {
		t.Fatalf("mysql docker port: %v", err)
	}
	deadline := time.Now().Add(120 * time.Second)
	for time.Now().Before(deadline) {
		_, err := dockerRun("exec", name, "mysqladmin", "ping", "-h", "127.0.0.1", "-ptestpw", "--silent")
		if err == nil {
			return name, port
		}
		time.Sleep(500 * time.Millisecond)
	}
	t.Fatalf("mysql did not become ready")
	return "", ""
}

func dockerHostPort(container, portProto string) (string, error) {
	out, err := dockerRun("port", container, portProto)
	if err != nil {
		return "", fmt.Errorf("docker port: %w: %s", err, out)
	}
	re := regexp.MustCompile(`:(\d+)`)
	m := re.FindStringSubmatch(out)
	if len(m) != 2 {
		return "", fmt.Errorf("unexpected docker port output: %q", out)
	}
	return m[1], nil
}

func dockerRmForce(container string) error {
	if strings.TrimSpace(container) == "" {
		return nil
	}
	_, err := dockerRun("rm", "-f", container)
	return err
}

func dockerRun(args ...string) (string, error) {
	cmd := exec.Command("docker", args...)
	b, err := cmd.CombinedOutput()
	return string(b), err
}
