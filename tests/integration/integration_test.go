package integration

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Тестовые структуры данных соответствующие API
type CreateTeamRequest struct {
	Name string `json:"name"`
}

type CreateTeamResponse struct {
	TeamID            string    `json:"team_id"`
	TeamName          string    `json:"team_name"`
	EmployeeCode      string    `json:"employee_code"`
	ManagerInviteCode string    `json:"manager_invite_code"`
	InviteExpiresAt   time.Time `json:"invite_expires_at"`
}

type JoinRequest struct {
	Name     string `json:"name"`
	TeamCode string `json:"team_code"`
}

type ClaimRequest struct {
	Name              string `json:"name"`
	ManagerInviteCode string `json:"manager_invite_code"`
}

type MembershipResponse struct {
	TeamID        string    `json:"team_id"`
	UserID        string    `json:"user_id"`
	UserName      string    `json:"user_name"`
	Role          string    `json:"role"`
	Token         string    `json:"token"`
	ExpiresAt     time.Time `json:"expires_at"`
	AlreadyMember bool      `json:"already_member"`
	Upgraded      bool      `json:"upgraded"`
}

type ErrorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (te *TestEnvironment) postJSON(t *testing.T, path string, payload any, token string) *http.Response {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)
	return te.MakeRequest(t, http.MethodPost, path, bytes.NewReader(body), token)
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()

	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func errorCode(t *testing.T, resp *http.Response) string {
	t.Helper()
	return decodeBody[ErrorResponse](t, resp).Error.Code
}

func (te *TestEnvironment) createTeam(t *testing.T, name string) CreateTeamResponse {
	t.Helper()
	resp := te.postJSON(t, "/api/teams", CreateTeamRequest{Name: name}, "")
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	return decodeBody[CreateTeamResponse](t, resp)
}

// TestE2E_CompleteWorkflow тестирует полный сценарий: команда, вступление, роль менеджера
func TestE2E_CompleteWorkflow(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	// Настраиваем тестовое окружение
	env := SetupTestEnvironment(t)
	defer env.Cleanup(t)

	// Ждем пока приложение будет готово
	env.WaitForHealthCheck(t)

	var team CreateTeamResponse
	t.Run("Create Team", func(t *testing.T) {
		team = env.createTeam(t, "Acme")

		assert.Regexp(t, `^[A-HJ-NP-Z2-9]{6}$`, team.EmployeeCode)
		assert.Regexp(t, `^[A-Za-z0-9]{12}$`, team.ManagerInviteCode)
		assert.Equal(t, "Acme", team.TeamName)
	})

	var alice MembershipResponse
	t.Run("Join Team", func(t *testing.T) {
		resp := env.postJSON(t, "/api/teams/join", JoinRequest{Name: "Alice", TeamCode: team.EmployeeCode}, "")
		require.Equal(t, http.StatusCreated, resp.StatusCode)

		alice = decodeBody[MembershipResponse](t, resp)
		assert.Equal(t, "employee", alice.Role)
		assert.NotEmpty(t, alice.Token)
		assert.False(t, alice.AlreadyMember)
	})

	t.Run("Join Again Is Idempotent", func(t *testing.T) {
		resp := env.postJSON(t, "/api/teams/join", JoinRequest{Name: "Alice", TeamCode: team.EmployeeCode}, "")
		require.Equal(t, http.StatusOK, resp.StatusCode)

		again := decodeBody[MembershipResponse](t, resp)
		assert.True(t, again.AlreadyMember)
		assert.Equal(t, alice.UserID, again.UserID)

		var count int
		err := env.DB.QueryRow(env.ctx,
			`SELECT COUNT(*) FROM memberships WHERE team_id = $1`, team.TeamID).Scan(&count)
		require.NoError(t, err)
		assert.Equal(t, 1, count)
	})

	t.Run("Join With Unknown Code", func(t *testing.T) {
		resp := env.postJSON(t, "/api/teams/join", JoinRequest{Name: "Alice", TeamCode: "ZZZZZZ"}, "")
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		assert.Equal(t, "NOT_FOUND", errorCode(t, resp))
	})

	t.Run("Employee Cannot List Members", func(t *testing.T) {
		resp := env.MakeRequest(t, http.MethodGet, "/api/teams/"+team.TeamID+"/members", nil, alice.Token)
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
		assert.Equal(t, "FORBIDDEN", errorCode(t, resp))

		resp = env.MakeRequest(t, http.MethodGet, "/api/teams/"+team.TeamID+"/members", nil, "")
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		resp.Body.Close()
	})

	var manager MembershipResponse
	t.Run("Claim Manager Role", func(t *testing.T) {
		resp := env.postJSON(t, "/api/teams/claim-manager-role", ClaimRequest{Name: "Alice", ManagerInviteCode: team.ManagerInviteCode}, "")
		require.Equal(t, http.StatusOK, resp.StatusCode)

		manager = decodeBody[MembershipResponse](t, resp)
		assert.Equal(t, "manager", manager.Role)
		assert.Equal(t, alice.UserID, manager.UserID)
		assert.True(t, manager.Upgraded)

		var isUsed bool
		err := env.DB.QueryRow(env.ctx,
			`SELECT is_used FROM manager_invites WHERE invite_code = $1`, team.ManagerInviteCode).Scan(&isUsed)
		require.NoError(t, err)
		assert.True(t, isUsed)
	})

	t.Run("Claim Twice Fails", func(t *testing.T) {
		resp := env.postJSON(t, "/api/teams/claim-manager-role", ClaimRequest{Name: "Bob", ManagerInviteCode: team.ManagerInviteCode}, "")
		assert.Equal(t, http.StatusConflict, resp.StatusCode)
		assert.Equal(t, "INVITE_ALREADY_USED", errorCode(t, resp))
	})

	t.Run("Manager Endpoints", func(t *testing.T) {
		resp := env.MakeRequest(t, http.MethodGet, "/api/teams/"+team.TeamID+"/members", nil, manager.Token)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		members := decodeBody[struct {
			Members []struct {
				UserName string `json:"user_name"`
				Role     string `json:"role"`
			} `json:"members"`
		}](t, resp)
		require.Len(t, members.Members, 1)
		assert.Equal(t, "manager", members.Members[0].Role)

		resp = env.MakeRequest(t, http.MethodGet, "/api/subscription/status", nil, manager.Token)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		sub := decodeBody[struct {
			Plan          string `json:"plan"`
			EmployeeCount int    `json:"employee_count"`
		}](t, resp)
		assert.Equal(t, "trial", sub.Plan)
		assert.Equal(t, 0, sub.EmployeeCount)
	})

	t.Run("Activity And Stats", func(t *testing.T) {
		bob := decodeBody[MembershipResponse](t,
			env.postJSON(t, "/api/teams/join", JoinRequest{Name: "Bob", TeamCode: team.EmployeeCode}, ""))

		resp := env.postJSON(t, "/api/teams/"+team.TeamID+"/activity", map[string]any{
			"active_app":         "editor",
			"productive_hours":   3,
			"unproductive_hours": 1,
			"goals_completed":    2,
		}, bob.Token)
		require.Equal(t, http.StatusCreated, resp.StatusCode)
		resp.Body.Close()

		resp = env.MakeRequest(t, http.MethodGet, "/api/teams/"+team.TeamID+"/stats", nil, manager.Token)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		stats := decodeBody[struct {
			Managers          int     `json:"managers"`
			Employees         int     `json:"employees"`
			ProductiveHours   float64 `json:"productive_hours"`
			ProductivityScore float64 `json:"productivity_score"`
		}](t, resp)
		assert.Equal(t, 1, stats.Managers)
		assert.Equal(t, 1, stats.Employees)
		assert.Equal(t, 3.0, stats.ProductiveHours)
		assert.Equal(t, 75.0, stats.ProductivityScore)
	})

	t.Run("Token For Other Team Is Forbidden", func(t *testing.T) {
		other := env.createTeam(t, "Other")
		resp := env.MakeRequest(t, http.MethodGet, "/api/teams/"+other.TeamID+"/stats", nil, manager.Token)
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
		resp.Body.Close()
	})

	t.Run("Expired Invite", func(t *testing.T) {
		other := env.createTeam(t, "Expired")
		_, err := env.DB.Exec(env.ctx,
			`UPDATE manager_invites SET expires_at = now() - interval '1 minute' WHERE invite_code = $1`,
			other.ManagerInviteCode)
		require.NoError(t, err)

		resp := env.postJSON(t, "/api/teams/claim-manager-role", ClaimRequest{Name: "Eve", ManagerInviteCode: other.ManagerInviteCode}, "")
		assert.Equal(t, http.StatusGone, resp.StatusCode)
		assert.Equal(t, "INVITE_EXPIRED", errorCode(t, resp))
	})

	t.Run("Metrics", func(t *testing.T) {
		resp := env.MakeRequest(t, http.MethodGet, "/metrics", nil, "")
		defer resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)

		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		assert.Contains(t, string(body), "teamflow_membership_resolutions_total")
	})
}

// TestE2E_ConcurrentRequests проверяет, что ограничения БД держат инварианты при гонках
func TestE2E_ConcurrentRequests(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	env := SetupTestEnvironment(t)
	defer env.Cleanup(t)
	env.WaitForHealthCheck(t)

	team := env.createTeam(t, "Race")

	t.Run("Concurrent Joins Create One Membership", func(t *testing.T) {
		const workers = 10
		var wg sync.WaitGroup
		statuses := make(chan int, workers)

		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				resp := env.postJSON(t, "/api/teams/join", JoinRequest{Name: "Alice", TeamCode: team.EmployeeCode}, "")
				resp.Body.Close()
				statuses <- resp.StatusCode
			}()
		}
		wg.Wait()
		close(statuses)

		created := 0
		for status := range statuses {
			require.Contains(t, []int{http.StatusOK, http.StatusCreated}, status)
			if status == http.StatusCreated {
				created++
			}
		}
		assert.Equal(t, 1, created)

		var count, employees int
		require.NoError(t, env.DB.QueryRow(env.ctx,
			`SELECT COUNT(*) FROM memberships WHERE team_id = $1`, team.TeamID).Scan(&count))
		require.NoError(t, env.DB.QueryRow(env.ctx,
			`SELECT employee_count FROM subscriptions WHERE team_id = $1`, team.TeamID).Scan(&employees))
		assert.Equal(t, 1, count)
		assert.Equal(t, 1, employees)
	})

	t.Run("Concurrent Claims Succeed Once", func(t *testing.T) {
		names := []string{"Bob", "Carol", "Dave", "Erin", "Frank"}
		var wg sync.WaitGroup
		statuses := make(chan int, len(names))

		for _, name := range names {
			wg.Add(1)
			go func(name string) {
				defer wg.Done()
				resp := env.postJSON(t, "/api/teams/claim-manager-role", ClaimRequest{Name: name, ManagerInviteCode: team.ManagerInviteCode}, "")
				resp.Body.Close()
				statuses <- resp.StatusCode
			}(name)
		}
		wg.Wait()
		close(statuses)

		succeeded := 0
		for status := range statuses {
			if status == http.StatusOK {
				succeeded++
				continue
			}
			assert.Equal(t, http.StatusConflict, status)
		}
		assert.Equal(t, 1, succeeded)

		var managers int
		require.NoError(t, env.DB.QueryRow(env.ctx,
			`SELECT COUNT(*) FROM memberships WHERE team_id = $1 AND role = 'manager'`, team.TeamID).Scan(&managers))
		assert.Equal(t, 1, managers)
	})
}
