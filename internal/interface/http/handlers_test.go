package httpservice

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/holiman/uint256"
	"github.com/raffle-network/raffle/internal/core/application"
	"github.com/raffle-network/raffle/internal/core/domain"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const (
	coordinator = "0x5FbDB2315678afecb367f032d93F642f64180aa3"
	player      = "0x70997970C51812dc3A010C7d01b50e0d17dc79C8"
	credential  = "oracle-secret"
	adminUser   = "admin"
	adminPass   = "pass"
	entranceFee = uint64(10000000000000000)
)

var testConfig = Config{
	AdminUser:        adminUser,
	AdminPass:        adminPass,
	OracleCallback:   true,
	OracleCredential: credential,
}

type request struct {
	method  string
	path    string
	body    string
	headers map[string]string
	admin   bool
}

// closeNotifyingRecorder lets the recorder serve streaming responses.
type closeNotifyingRecorder struct {
	*httptest.ResponseRecorder
	closed chan bool
}

func (r *closeNotifyingRecorder) CloseNotify() <-chan bool {
	return r.closed
}

func do(t *testing.T, svc *mockedAppService, cfg Config, r request) *httptest.ResponseRecorder {
	router := newRouter(svc, cfg)

	req := httptest.NewRequest(r.method, r.path, strings.NewReader(r.body))
	if len(r.body) > 0 {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range r.headers {
		req.Header.Set(k, v)
	}
	if r.admin {
		req.SetBasicAuth(adminUser, adminPass)
	}

	rec := &closeNotifyingRecorder{httptest.NewRecorder(), make(chan bool, 1)}
	router.ServeHTTP(rec, req)
	return rec.ResponseRecorder
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	res := make(map[string]interface{})
	err := json.Unmarshal(rec.Body.Bytes(), &res)
	require.NoError(t, err)
	return res
}

func TestInfoHandlers(t *testing.T) {
	svc := &mockedAppService{}
	svc.On("GetInfo", mock.Anything).Return(&application.RaffleInfo{
		Name:         "raffle",
		EntranceFee:  entranceFee,
		Interval:     30,
		Coordinator:  coordinator,
		NumWords:     1,
		State:        domain.RaffleCalculating,
		RoundId:      2,
		OpenedAt:     1700000000,
		Participants: 3,
		Balance:      3 * entranceFee,
		RecentWinner: player,
		UpkeepReason: domain.UpkeepNotOpen,
		PendingRequest: &domain.PendingRequest{
			RequestId: "1", RoundId: 2, RequestedAt: 1700000030,
		},
		PendingRequestAge: 10,
	}, nil)

	rec := do(t, svc, testConfig, request{method: http.MethodGet, path: "/v1/info"})
	require.Equal(t, http.StatusOK, rec.Code)
	res := decode(t, rec)
	require.Equal(t, "raffle", res["name"])
	require.Equal(t, "10000000000000000", res["entranceFee"])
	require.Equal(t, "30000000000000000", res["balance"])
	require.Equal(t, "CALCULATING", res["state"])
	require.Equal(t, float64(1), res["stateCode"])
	require.Equal(t, float64(1700000000), res["latestTimestamp"])
	require.Equal(t, "raffle not open", res["upkeepReason"])
	require.Equal(t, player, res["recentWinner"])
	pending := res["pendingRequest"].(map[string]interface{})
	require.Equal(t, "1", pending["requestId"])
	require.Equal(t, float64(10), pending["age"])
	require.NotContains(t, res, "pendingSettlement")

	rec = do(t, svc, testConfig, request{method: http.MethodGet, path: "/v1/state"})
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"state":"CALCULATING","stateCode":1}`, rec.Body.String())

	rec = do(t, svc, testConfig, request{method: http.MethodGet, path: "/v1/recent-winner"})
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, fmt.Sprintf(`{"recentWinner":"%s"}`, player), rec.Body.String())
	require.NotEmpty(t, rec.Header().Get(requestIdHeader))

	rec = do(t, svc, testConfig, request{method: http.MethodGet, path: "/metrics"})
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestParticipantHandlers(t *testing.T) {
	svc := &mockedAppService{}
	svc.On("GetParticipants", mock.Anything).Return([]string{player}, nil)
	svc.On("GetParticipant", mock.Anything, uint64(0)).Return(player, nil)
	svc.On("GetParticipant", mock.Anything, uint64(1)).
		Return("", fmt.Errorf("%w: 1", domain.ErrIndexOutOfRange))

	fixtures := []struct {
		path           string
		expectedStatus int
		expectedBody   string
	}{
		{"/v1/participants", http.StatusOK, fmt.Sprintf(`{"participants":["%s"]}`, player)},
		{"/v1/participants/0", http.StatusOK, fmt.Sprintf(`{"participant":"%s"}`, player)},
		{"/v1/participants/1", http.StatusNotFound, `{"error":"participant index out of range: 1"}`},
		{"/v1/participants/first", http.StatusBadRequest, `{"error":"invalid participant index"}`},
	}

	for _, f := range fixtures {
		rec := do(t, svc, testConfig, request{method: http.MethodGet, path: f.path})
		require.Equal(t, f.expectedStatus, rec.Code, f.path)
		require.JSONEq(t, f.expectedBody, rec.Body.String(), f.path)
	}
}

func TestEnterHandler(t *testing.T) {
	svc := &mockedAppService{}
	svc.On("Enter", mock.Anything, player, entranceFee).Return(nil).Once()
	svc.On("Enter", mock.Anything, player, entranceFee-1).
		Return(domain.ErrInsufficientPayment).Once()
	svc.On("Enter", mock.Anything, player, entranceFee+1).
		Return(domain.ErrExcessPayment).Once()
	svc.On("Enter", mock.Anything, player, uint64(1)).
		Return(domain.ErrRoundNotOpen).Once()

	body := func(participant string, payment uint64) string {
		return fmt.Sprintf(`{"participant":"%s","payment":"%d"}`, participant, payment)
	}

	fixtures := []struct {
		body           string
		expectedStatus int
	}{
		// addresses are normalized to their checksummed form
		{body(strings.ToLower(player), entranceFee), http.StatusOK},
		{body(player, entranceFee-1), http.StatusBadRequest},
		{body(player, entranceFee+1), http.StatusBadRequest},
		{body(player, 1), http.StatusConflict},
		{body("player", entranceFee), http.StatusBadRequest},
		{`{"participant":"` + player + `","payment":"-1"}`, http.StatusBadRequest},
		{`{"participant":"` + player + `"}`, http.StatusBadRequest},
		{`not json`, http.StatusBadRequest},
	}

	for _, f := range fixtures {
		rec := do(t, svc, testConfig, request{
			method: http.MethodPost, path: "/v1/enter", body: f.body,
		})
		require.Equal(t, f.expectedStatus, rec.Code, f.body)
	}

	svc.AssertExpectations(t)
}

func TestUpkeepHandlers(t *testing.T) {
	svc := &mockedAppService{}
	svc.On("CheckUpkeep", mock.Anything).
		Return(false, domain.UpkeepIntervalNotElapsed).Once()
	svc.On("PerformUpkeep", mock.Anything).Return("", &domain.UpkeepNotNeededError{
		Balance: entranceFee, Participants: 1, State: domain.RaffleOpen,
		Reason: domain.UpkeepIntervalNotElapsed,
	}).Once()
	svc.On("PerformUpkeep", mock.Anything).Return("", fmt.Errorf(
		"%w: subscription not funded", domain.ErrOracleRequestFailed,
	)).Once()
	svc.On("PerformUpkeep", mock.Anything).Return("42", nil).Once()

	rec := do(t, svc, testConfig, request{method: http.MethodGet, path: "/v1/upkeep"})
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(
		t, `{"upkeepNeeded":false,"reason":"interval not elapsed"}`, rec.Body.String(),
	)

	rec = do(t, svc, testConfig, request{method: http.MethodPost, path: "/v1/upkeep"})
	require.Equal(t, http.StatusConflict, rec.Code)
	require.JSONEq(t, `{"error":"upkeep not needed: interval not elapsed `+
		`(balance: 10000000000000000, participants: 1, state: OPEN)"}`, rec.Body.String())

	rec = do(t, svc, testConfig, request{method: http.MethodPost, path: "/v1/upkeep"})
	require.Equal(t, http.StatusBadGateway, rec.Code)

	rec = do(t, svc, testConfig, request{method: http.MethodPost, path: "/v1/upkeep"})
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"requestId":"42"}`, rec.Body.String())
}

func TestFulfillHandler(t *testing.T) {
	svc := &mockedAppService{}
	svc.On(
		"FulfillRandomness", mock.Anything, coordinator, "1",
		[]*uint256.Int{uint256.NewInt(7)},
	).Return(nil).Once()
	svc.On(
		"FulfillRandomness", mock.Anything, player, "1", mock.Anything,
	).Return(domain.ErrOnlyCoordinatorCanFulfill).Once()
	svc.On(
		"FulfillRandomness", mock.Anything, coordinator, "2", mock.Anything,
	).Return(fmt.Errorf("%w: 2", domain.ErrUnknownRequest)).Once()
	svc.On(
		"FulfillRandomness", mock.Anything, coordinator, "3", mock.Anything,
	).Return(fmt.Errorf("%w: recipient rejected", domain.ErrTransferFailed)).Once()
	svc.On(
		"FulfillRandomness", mock.Anything, coordinator, "4", mock.Anything,
	).Return(domain.ErrReentrantCall).Once()

	withCaller := func(caller string) map[string]string {
		return map[string]string{
			coordinatorHeader: caller,
			credentialHeader:  credential,
		}
	}

	fixtures := []struct {
		body           string
		headers        map[string]string
		expectedStatus int
	}{
		{`{"requestId":"1","randomWords":["7"]}`, withCaller(coordinator), http.StatusOK},
		{`{"requestId":"1","randomWords":["7"]}`, withCaller(player), http.StatusForbidden},
		{`{"requestId":"2","randomWords":["7"]}`, withCaller(coordinator), http.StatusNotFound},
		{`{"requestId":"3","randomWords":["7"]}`, withCaller(coordinator), http.StatusBadGateway},
		{`{"requestId":"4","randomWords":["7"]}`, withCaller(coordinator), http.StatusConflict},
		{`{"requestId":"1","randomWords":["0x07"]}`, withCaller(coordinator), http.StatusBadRequest},
		{`{"requestId":"1","randomWords":[]}`, withCaller(coordinator), http.StatusBadRequest},
		{
			`{"requestId":"1","randomWords":["7"]}`,
			map[string]string{coordinatorHeader: coordinator},
			http.StatusUnauthorized,
		},
		{
			`{"requestId":"1","randomWords":["7"]}`,
			map[string]string{coordinatorHeader: coordinator, credentialHeader: "wrong"},
			http.StatusUnauthorized,
		},
	}

	for _, f := range fixtures {
		rec := do(t, svc, testConfig, request{
			method: http.MethodPost, path: "/v1/fulfill", body: f.body, headers: f.headers,
		})
		require.Equal(t, f.expectedStatus, rec.Code, f.body)
	}

	svc.AssertExpectations(t)
}

func TestFulfillHandlerDisabled(t *testing.T) {
	svc := &mockedAppService{}
	body := `{"requestId":"1","randomWords":["2"]}`

	// oracles delivering in process never expose the endpoint
	rec := do(t, svc, Config{}, request{
		method: http.MethodPost, path: "/v1/fulfill", body: body,
		headers: map[string]string{coordinatorHeader: coordinator},
	})
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, svc, Config{OracleCredential: credential}, request{
		method: http.MethodPost, path: "/v1/fulfill", body: body,
		headers: map[string]string{
			coordinatorHeader: coordinator,
			credentialHeader:  credential,
		},
	})
	require.Equal(t, http.StatusNotFound, rec.Code)

	// an empty credential never matches
	rec = do(t, svc, Config{OracleCallback: true}, request{
		method: http.MethodPost, path: "/v1/fulfill", body: body,
		headers: map[string]string{
			coordinatorHeader: coordinator,
			credentialHeader:  "",
		},
	})
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	svc.AssertNotCalled(
		t, "FulfillRandomness", mock.Anything, mock.Anything, mock.Anything,
		mock.Anything,
	)
}

func TestAdminHandlers(t *testing.T) {
	svc := &mockedAppService{}
	svc.On("RetrySettlement", mock.Anything).
		Return(fmt.Errorf("%w: wallet unavailable", domain.ErrTransferFailed)).Once()
	svc.On("RetrySettlement", mock.Anything).Return(nil).Once()
	svc.On("RetrySettlement", mock.Anything).Return(domain.ErrNoSettlementPending).Once()

	path := "/v1/admin/retry-settlement"

	rec := do(t, svc, testConfig, request{method: http.MethodPost, path: path})
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	for _, expectedStatus := range []int{
		http.StatusBadGateway, http.StatusNoContent, http.StatusConflict,
	} {
		rec = do(t, svc, testConfig, request{
			method: http.MethodPost, path: path, admin: true,
		})
		require.Equal(t, expectedStatus, rec.Code)
	}

	// admin endpoints are not served without credentials
	rec = do(t, svc, Config{}, request{method: http.MethodPost, path: path, admin: true})
	require.Equal(t, http.StatusNotFound, rec.Code)

	svc.AssertExpectations(t)
}

func TestRoundHandlers(t *testing.T) {
	round := domain.SettledRound{
		RaffleId:     "raffle",
		RoundId:      0,
		RequestId:    "1",
		RandomWord:   "4",
		WinnerIndex:  1,
		Winner:       player,
		Payout:       18000000000000000000,
		Participants: 3,
		Txid:         "0x01",
		OpenedAt:     1700000000,
		SettledAt:    1700000040,
	}

	svc := &mockedAppService{}
	svc.On("GetRounds", mock.Anything).Return([]domain.SettledRound{round}, nil)
	svc.On("GetRound", mock.Anything, uint64(0)).Return(&round, nil)
	svc.On("GetRound", mock.Anything, uint64(1)).Return(nil, fmt.Errorf(
		"round 1 of raffle raffle %w", domain.ErrRoundNotFound,
	))

	rec := do(t, svc, testConfig, request{method: http.MethodGet, path: "/v1/rounds/0"})
	require.Equal(t, http.StatusOK, rec.Code)
	res := decode(t, rec)
	require.Equal(t, player, res["winner"])
	require.Equal(t, "18000000000000000000", res["payout"])
	require.Equal(t, float64(1), res["winnerIndex"])

	rec = do(t, svc, testConfig, request{method: http.MethodGet, path: "/v1/rounds"})
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, decode(t, rec)["rounds"], 1)

	rec = do(t, svc, testConfig, request{method: http.MethodGet, path: "/v1/rounds/1"})
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.JSONEq(t, `{"error":"round 1 of raffle raffle not found"}`, rec.Body.String())

	rec = do(t, svc, testConfig, request{method: http.MethodGet, path: "/v1/rounds/last"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestEventsHandler(t *testing.T) {
	svc := &mockedAppService{events: make(chan domain.Event, 2)}
	svc.events <- domain.RaffleEntered{
		RaffleEvent: domain.RaffleEvent{Id: "raffle", Type: domain.EventTypeRaffleEntered},
		Participant: player,
		Amount:      entranceFee,
	}
	close(svc.events)

	rec := do(t, svc, testConfig, request{method: http.MethodGet, path: "/v1/events"})
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "event:RaffleEntered")
	require.Contains(t, rec.Body.String(), player)
}
