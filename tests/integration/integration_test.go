package integration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Тестовые структуры данных соответствующие API
type RegisterRequest struct {
	Username string  `json:"username"`
	Email    string  `json:"email"`
	Password string  `json:"password"`
	TeamID   *string `json:"team_id,omitempty"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type User struct {
	ID     string  `json:"id"`
	TeamID *string `json:"team_id"`
}

type AuthResponse struct {
	AccessToken string `json:"access_token"`
	User        User   `json:"user"`
}

type CreateTeamRequest struct {
	Name string `json:"name"`
}

type TeamResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type CreateGroupRequest struct {
	Name        string   `json:"name"`
	Description *string  `json:"description,omitempty"`
	Tags        []string `json:"tags,omitempty"`
}

type UpdateGroupRequest struct {
	Name *string  `json:"name,omitempty"`
	Tags []string `json:"tags,omitempty"`
}

type Changelog struct {
	Name         string   `json:"name"`
	Tags         []string `json:"tags"`
	EditorUserID string   `json:"userId"`
}

type Version struct {
	ID            string    `json:"id"`
	VersionNumber int       `json:"version"`
	IsActive      bool      `json:"is_active"`
	Changelog     Changelog `json:"changelog"`
}

type GroupResponse struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	OwnerUserID string     `json:"user_id"`
	Tags        []string   `json:"tags"`
	Versions    []*Version `json:"versions"`
}

type GroupSummary struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	OwnerUserID string   `json:"user_id"`
	VersionIDs  []string `json:"versions"`
}

type ListResponse struct {
	Items []GroupSummary `json:"items"`
	Total int            `json:"total"`
}

// register регистрирует пользователя и возвращает его id и токен
func register(t *testing.T, env *TestEnvironment, username, email string, teamID *string) AuthResponse {
	t.Helper()

	body, _ := json.Marshal(RegisterRequest{
		Username: username,
		Email:    email,
		Password: "password123",
		TeamID:   teamID,
	})
	resp := env.MakeRequest(t, http.MethodPost, "/auth/register", bytes.NewReader(body), "")
	defer resp.Body.Close()

	require.Equal(t, http.StatusCreated, resp.StatusCode, "Registration should succeed")

	var authResp AuthResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&authResp))
	require.NotEmpty(t, authResp.AccessToken)
	return authResp
}

// createTeam создает команду и возвращает ее id
func createTeam(t *testing.T, env *TestEnvironment, token, name string) string {
	t.Helper()

	body, _ := json.Marshal(CreateTeamRequest{Name: name})
	resp := env.MakeRequest(t, http.MethodPost, "/team", bytes.NewReader(body), token)
	defer resp.Body.Close()

	require.Equal(t, http.StatusCreated, resp.StatusCode, "Team creation should succeed")

	var team TeamResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&team))
	require.NotEmpty(t, team.ID)
	return team.ID
}

// TestE2E_CompleteWorkflow тестирует полный жизненный цикл группы сервисов
func TestE2E_CompleteWorkflow(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	// Настраиваем тестовое окружение
	env := SetupTestEnvironment(t)
	defer env.Cleanup(t)

	// Ждем пока приложение будет готово
	env.WaitForHealthCheck(t)

	// Регистрируем основателя и создаем команду от его имени
	founder := register(t, env, "founder", "founder@example.com", nil)
	teamID := createTeam(t, env, founder.AccessToken, "backend-team")

	// Алиса и Боб в одной команде, Чарли без команды
	alice := register(t, env, "alice", "alice@example.com", &teamID)
	bob := register(t, env, "bob", "bob@example.com", &teamID)
	charlie := register(t, env, "charlie", "charlie@example.com", nil)

	var group GroupResponse
	t.Run("Create Service Group", func(t *testing.T) {
		desc := "Payment processing services"
		body, _ := json.Marshal(CreateGroupRequest{
			Name:        "payments",
			Description: &desc,
			Tags:        []string{"billing", "core"},
		})

		resp := env.MakeRequest(t, http.MethodPost, "/service-group", bytes.NewReader(body), alice.AccessToken)
		defer resp.Body.Close()

		require.Equal(t, http.StatusCreated, resp.StatusCode, "Group creation should succeed")
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&group))

		assert.Equal(t, "payments", group.Name)
		assert.Equal(t, alice.User.ID, group.OwnerUserID)

		// Создание группы всегда порождает активную версию 1
		require.Len(t, group.Versions, 1)
		assert.Equal(t, 1, group.Versions[0].VersionNumber)
		assert.True(t, group.Versions[0].IsActive)

		// Слепок changelog записан от имени создателя
		assert.Equal(t, alice.User.ID, group.Versions[0].Changelog.EditorUserID)
		assert.Equal(t, "payments", group.Versions[0].Changelog.Name)
	})

	t.Run("Teammate Can Read", func(t *testing.T) {
		resp := env.MakeRequest(t, http.MethodGet, "/service-group/"+group.ID, nil, bob.AccessToken)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusOK, resp.StatusCode, "Teammate should see the group")
	})

	t.Run("Update Creates New Version", func(t *testing.T) {
		newName := "payments-core"
		body, _ := json.Marshal(UpdateGroupRequest{Name: &newName})

		resp := env.MakeRequest(t, http.MethodPatch, "/service-group/"+group.ID, bytes.NewReader(body), bob.AccessToken)
		defer resp.Body.Close()

		require.Equal(t, http.StatusOK, resp.StatusCode, "Teammate update should succeed")

		var updated GroupResponse
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&updated))

		assert.Equal(t, "payments-core", updated.Name)
		require.Len(t, updated.Versions, 2)

		// Версия 1 снята с активности, версия 2 активна
		assert.Equal(t, 1, updated.Versions[0].VersionNumber)
		assert.False(t, updated.Versions[0].IsActive)
		assert.Equal(t, 2, updated.Versions[1].VersionNumber)
		assert.True(t, updated.Versions[1].IsActive)

		// Редактором новой версии записан Боб, владелец не изменился
		assert.Equal(t, bob.User.ID, updated.Versions[1].Changelog.EditorUserID)
		assert.Equal(t, alice.User.ID, updated.OwnerUserID)
	})

	t.Run("List Scoped to Team", func(t *testing.T) {
		resp := env.MakeRequest(t, http.MethodGet, "/service-group?search=payments", nil, alice.AccessToken)
		defer resp.Body.Close()

		require.Equal(t, http.StatusOK, resp.StatusCode)

		var list ListResponse
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&list))

		assert.Equal(t, 1, list.Total)
		require.Len(t, list.Items, 1)
		assert.Equal(t, group.ID, list.Items[0].ID)

		// В списке версии отдаются только идентификаторами
		assert.Len(t, list.Items[0].VersionIDs, 2)
	})

	t.Run("Outsider Is Forbidden", func(t *testing.T) {
		resp := env.MakeRequest(t, http.MethodGet, "/service-group/"+group.ID, nil, charlie.AccessToken)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusForbidden, resp.StatusCode, "Teamless outsider should be denied")
	})

	t.Run("Delete and History Retention", func(t *testing.T) {
		resp := env.MakeRequest(t, http.MethodDelete, "/service-group/"+group.ID, nil, alice.AccessToken)
		defer resp.Body.Close()

		require.Equal(t, http.StatusOK, resp.StatusCode)

		var deleteResp struct {
			Deleted bool `json:"deleted"`
		}
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&deleteResp))
		assert.True(t, deleteResp.Deleted)

		// Удаленная группа больше не находится
		getResp := env.MakeRequest(t, http.MethodGet, "/service-group/"+group.ID, nil, alice.AccessToken)
		defer getResp.Body.Close()
		assert.Equal(t, http.StatusNotFound, getResp.StatusCode)

		// История версий при этом сохраняется в БД
		var versionCount int
		err := env.DB.QueryRow(env.ctx,
			"SELECT COUNT(*) FROM versions WHERE service_group_id = $1", group.ID).Scan(&versionCount)
		require.NoError(t, err)
		assert.Equal(t, 2, versionCount)
	})
}

// TestE2E_ListFiltering тестирует поиск, сортировку и пагинацию списка
func TestE2E_ListFiltering(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	env := SetupTestEnvironment(t)
	defer env.Cleanup(t)

	env.WaitForHealthCheck(t)

	owner := register(t, env, "owner", "owner@example.com", nil)

	// Создаем несколько групп с разными именами и тегами
	names := []string{"alpha", "beta", "gamma"}
	for i, name := range names {
		body, _ := json.Marshal(CreateGroupRequest{
			Name: name,
			Tags: []string{fmt.Sprintf("tag-%d", i), "shared"},
		})
		resp := env.MakeRequest(t, http.MethodPost, "/service-group", bytes.NewReader(body), owner.AccessToken)
		require.Equal(t, http.StatusCreated, resp.StatusCode)
		resp.Body.Close()
	}

	t.Run("Search by Name", func(t *testing.T) {
		resp := env.MakeRequest(t, http.MethodGet, "/service-group?search=beta", nil, owner.AccessToken)
		defer resp.Body.Close()

		var list ListResponse
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&list))

		assert.Equal(t, 1, list.Total)
		require.Len(t, list.Items, 1)
		assert.Equal(t, "beta", list.Items[0].Name)
	})

	t.Run("Search Matches Tags", func(t *testing.T) {
		resp := env.MakeRequest(t, http.MethodGet, "/service-group?search=shared", nil, owner.AccessToken)
		defer resp.Body.Close()

		var list ListResponse
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&list))
		assert.Equal(t, 3, list.Total)
	})

	t.Run("Sort Descending", func(t *testing.T) {
		resp := env.MakeRequest(t, http.MethodGet, "/service-group?sort=DESC", nil, owner.AccessToken)
		defer resp.Body.Close()

		var list ListResponse
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&list))

		require.Len(t, list.Items, 3)
		assert.Equal(t, "gamma", list.Items[0].Name)
		assert.Equal(t, "alpha", list.Items[2].Name)
	})

	t.Run("Pagination Preserves Total", func(t *testing.T) {
		resp := env.MakeRequest(t, http.MethodGet, "/service-group?page=2&limit=2", nil, owner.AccessToken)
		defer resp.Body.Close()

		var list ListResponse
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&list))

		// Счетчик отражает все совпадения, а не размер страницы
		assert.Equal(t, 3, list.Total)
		assert.Len(t, list.Items, 1)
	})

	t.Run("Invalid Page Falls Back to First", func(t *testing.T) {
		resp := env.MakeRequest(t, http.MethodGet, "/service-group?page=-1&limit=0", nil, owner.AccessToken)
		defer resp.Body.Close()

		var list ListResponse
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&list))

		assert.Equal(t, 3, list.Total)
		assert.Len(t, list.Items, 3)
	})
}

// TestE2E_ConcurrentUpdates тестирует гонку двух одновременных обновлений одной группы.
// Частичный уникальный индекс активной версии должен пропустить не более одного
// победителя за раунд; проигравший получает 409 и не оставляет следов в истории.
func TestE2E_ConcurrentUpdates(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	env := SetupTestEnvironment(t)
	defer env.Cleanup(t)

	env.WaitForHealthCheck(t)

	owner := register(t, env, "owner", "owner@example.com", nil)

	body, _ := json.Marshal(CreateGroupRequest{Name: "payments"})
	resp := env.MakeRequest(t, http.MethodPost, "/service-group", bytes.NewReader(body), owner.AccessToken)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var group GroupResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&group))
	resp.Body.Close()

	// Два одновременных PATCH по одной группе
	const workers = 2
	statuses := make(chan int, workers)
	errs := make(chan error, workers)
	start := make(chan struct{})

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()

			name := fmt.Sprintf("payments-%d", i)
			payload, err := json.Marshal(UpdateGroupRequest{Name: &name})
			if err != nil {
				errs <- err
				return
			}

			req, err := http.NewRequest(http.MethodPatch, env.BaseURL+"/service-group/"+group.ID, bytes.NewReader(payload))
			if err != nil {
				errs <- err
				return
			}
			req.Header.Set("Content-Type", "application/json")
			req.Header.Set("Authorization", "Bearer "+owner.AccessToken)

			client := &http.Client{Timeout: 10 * time.Second}
			<-start
			response, err := client.Do(req)
			if err != nil {
				errs <- err
				return
			}
			io.Copy(io.Discard, response.Body)
			response.Body.Close()
			statuses <- response.StatusCode
		}(i)
	}

	close(start)
	wg.Wait()
	close(statuses)
	close(errs)

	for err := range errs {
		require.NoError(t, err, "Concurrent request should not fail at the transport level")
	}

	// Каждый запрос завершился либо успехом, либо конфликтом
	var okCount, conflictCount int
	for code := range statuses {
		switch code {
		case http.StatusOK:
			okCount++
		case http.StatusConflict:
			conflictCount++
		default:
			t.Fatalf("unexpected status code %d", code)
		}
	}
	require.Equal(t, workers, okCount+conflictCount)
	require.GreaterOrEqual(t, okCount, 1, "At least one update should win")

	// Каждый успешный PATCH добавил ровно одну версию, активная осталась одна
	getResp := env.MakeRequest(t, http.MethodGet, "/service-group/"+group.ID, nil, owner.AccessToken)
	defer getResp.Body.Close()
	require.Equal(t, http.StatusOK, getResp.StatusCode)

	var final GroupResponse
	require.NoError(t, json.NewDecoder(getResp.Body).Decode(&final))
	assert.Len(t, final.Versions, 1+okCount)

	activeCount := 0
	for _, v := range final.Versions {
		if v.IsActive {
			activeCount++
		}
	}
	assert.Equal(t, 1, activeCount, "Exactly one version should stay active")

	// Проигравшая транзакция не оставила строк в истории версий
	var versionCount int
	require.NoError(t, env.DB.QueryRow(env.ctx,
		"SELECT COUNT(*) FROM versions WHERE service_group_id = $1", group.ID).Scan(&versionCount))
	assert.Equal(t, 1+okCount, versionCount)
}

// TestE2E_AuthScenarios тестирует регистрацию, логин и защиту эндпоинтов
func TestE2E_AuthScenarios(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	env := SetupTestEnvironment(t)
	defer env.Cleanup(t)

	env.WaitForHealthCheck(t)

	register(t, env, "alice", "alice@example.com", nil)

	t.Run("Duplicate Email Rejected", func(t *testing.T) {
		body, _ := json.Marshal(RegisterRequest{
			Username: "alice2",
			Email:    "alice@example.com",
			Password: "password123",
		})
		resp := env.MakeRequest(t, http.MethodPost, "/auth/register", bytes.NewReader(body), "")
		defer resp.Body.Close()

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("Wrong Password Rejected", func(t *testing.T) {
		body, _ := json.Marshal(LoginRequest{Email: "alice@example.com", Password: "wrong"})
		resp := env.MakeRequest(t, http.MethodPost, "/auth/login", bytes.NewReader(body), "")
		defer resp.Body.Close()

		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("Protected Route Requires Token", func(t *testing.T) {
		resp := env.MakeRequest(t, http.MethodGet, "/service-group", nil, "")
		defer resp.Body.Close()

		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("Unknown Group Returns NotFound", func(t *testing.T) {
		body, _ := json.Marshal(LoginRequest{Email: "alice@example.com", Password: "password123"})
		resp := env.MakeRequest(t, http.MethodPost, "/auth/login", bytes.NewReader(body), "")
		var auth AuthResponse
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&auth))
		resp.Body.Close()

		// Валидный но несуществующий uuid
		getResp := env.MakeRequest(t, http.MethodGet, "/service-group/00000000-0000-0000-0000-000000000000", nil, auth.AccessToken)
		defer getResp.Body.Close()
		assert.Equal(t, http.StatusNotFound, getResp.StatusCode)

		// Некорректный идентификатор также трактуется как отсутствие ресурса
		badResp := env.MakeRequest(t, http.MethodGet, "/service-group/not-a-uuid", nil, auth.AccessToken)
		defer badResp.Body.Close()
		assert.Equal(t, http.StatusNotFound, badResp.StatusCode)
	})
}
