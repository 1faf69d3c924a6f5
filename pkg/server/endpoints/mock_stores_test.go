package endpoints

import (
	"github.com/stretchr/testify/mock"

	"github.com/tpmjs/tpmjs/pkg/model"
	"github.com/tpmjs/tpmjs/pkg/server/store"
)

// MockPackagesStore implements store.PackagesStore for testing
type MockPackagesStore struct {
	mock.Mock
}

func (m *MockPackagesStore) ListPackages(filter store.PackageFilter) ([]model.Package, int64, error) {
	args := m.Called(filter)
	return args.Get(0).([]model.Package), args.Get(1).(int64), args.Error(2)
}

func (m *MockPackagesStore) FindPackage(name string) (*model.Package, error) {
	args := m.Called(name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Package), args.Error(1)
}

func (m *MockPackagesStore) UpsertPackage(pkg model.Package) (*model.Package, error) {
	args := m.Called(pkg)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Package), args.Error(1)
}

func (m *MockPackagesStore) AllPackageNames() ([]string, error) {
	args := m.Called()
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockPackagesStore) SetHealthScore(name string, score int) error {
	args := m.Called(name, score)
	return args.Error(0)
}

// MockToolsStore implements store.ToolsStore for testing
type MockToolsStore struct {
	mock.Mock
}

func (m *MockToolsStore) ListToolsByPackage(packageName string) ([]model.Tool, error) {
	args := m.Called(packageName)
	return args.Get(0).([]model.Tool), args.Error(1)
}

func (m *MockToolsStore) FindTool(packageName, toolName string) (*store.ToolWithPackage, error) {
	args := m.Called(packageName, toolName)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*store.ToolWithPackage), args.Error(1)
}

func (m *MockToolsStore) FindToolByID(toolID string) (*store.ToolWithPackage, error) {
	args := m.Called(toolID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*store.ToolWithPackage), args.Error(1)
}

func (m *MockToolsStore) SearchTools(q string, limit, offset int) ([]store.ToolWithPackage, int64, error) {
	args := m.Called(q, limit, offset)
	return args.Get(0).([]store.ToolWithPackage), args.Get(1).(int64), args.Error(2)
}

func (m *MockToolsStore) ReplaceTools(packageID string, tools []model.Tool) error {
	args := m.Called(packageID, tools)
	return args.Error(0)
}

// MockCollectionsStore implements store.CollectionsStore for testing
type MockCollectionsStore struct {
	mock.Mock
}

func (m *MockCollectionsStore) CreateCollection(c model.Collection) (*model.Collection, error) {
	args := m.Called(c)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Collection), args.Error(1)
}

func (m *MockCollectionsStore) FindCollection(id string) (*model.Collection, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Collection), args.Error(1)
}

func (m *MockCollectionsStore) FindCollectionBySlug(userID, slug string) (*model.Collection, error) {
	args := m.Called(userID, slug)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Collection), args.Error(1)
}

func (m *MockCollectionsStore) ListCollections(userID string) ([]model.Collection, error) {
	args := m.Called(userID)
	return args.Get(0).([]model.Collection), args.Error(1)
}

func (m *MockCollectionsStore) UpdateCollection(c model.Collection) (*model.Collection, error) {
	args := m.Called(c)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Collection), args.Error(1)
}

func (m *MockCollectionsStore) DeleteCollection(id string) error {
	args := m.Called(id)
	return args.Error(0)
}

func (m *MockCollectionsStore) AddTool(collectionID, toolID string, position int) error {
	args := m.Called(collectionID, toolID, position)
	return args.Error(0)
}

func (m *MockCollectionsStore) RemoveTool(collectionID, toolID string) error {
	args := m.Called(collectionID, toolID)
	return args.Error(0)
}

func (m *MockCollectionsStore) ListTools(collectionID string) ([]store.ToolWithPackage, error) {
	args := m.Called(collectionID)
	return args.Get(0).([]store.ToolWithPackage), args.Error(1)
}

// MockAgentsStore implements store.AgentsStore for testing
type MockAgentsStore struct {
	mock.Mock
}

func (m *MockAgentsStore) CreateAgent(a model.Agent) (*model.Agent, error) {
	args := m.Called(a)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Agent), args.Error(1)
}

func (m *MockAgentsStore) FindAgent(id, userID string) (*model.Agent, error) {
	args := m.Called(id, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Agent), args.Error(1)
}

func (m *MockAgentsStore) ListAgents(userID string) ([]model.Agent, error) {
	args := m.Called(userID)
	return args.Get(0).([]model.Agent), args.Error(1)
}

func (m *MockAgentsStore) UpdateAgent(a model.Agent) (*model.Agent, error) {
	args := m.Called(a)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Agent), args.Error(1)
}

func (m *MockAgentsStore) DeleteAgent(id, userID string) error {
	args := m.Called(id, userID)
	return args.Error(0)
}

// MockConversationsStore implements store.ConversationsStore for testing
type MockConversationsStore struct {
	mock.Mock
}

func (m *MockConversationsStore) CreateConversation(agentID, title string) (*model.Conversation, error) {
	args := m.Called(agentID, title)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Conversation), args.Error(1)
}

func (m *MockConversationsStore) FindConversation(id, agentID string) (*model.Conversation, error) {
	args := m.Called(id, agentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Conversation), args.Error(1)
}

func (m *MockConversationsStore) ListConversations(agentID string) ([]model.Conversation, error) {
	args := m.Called(agentID)
	return args.Get(0).([]model.Conversation), args.Error(1)
}

func (m *MockConversationsStore) DeleteConversation(id string) error {
	args := m.Called(id)
	return args.Error(0)
}

func (m *MockConversationsStore) SaveMessage(msg model.Message) (*model.Message, error) {
	args := m.Called(msg)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Message), args.Error(1)
}

func (m *MockConversationsStore) ListMessages(conversationID string) ([]model.Message, error) {
	args := m.Called(conversationID)
	return args.Get(0).([]model.Message), args.Error(1)
}

// MockUsersStore implements store.UsersStore for testing
type MockUsersStore struct {
	mock.Mock
}

func (m *MockUsersStore) FindUser(id string) (*model.User, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUsersStore) FindUserByEmail(email string) (*model.User, error) {
	args := m.Called(email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUsersStore) CreateUser(email, name string) (*model.User, error) {
	args := m.Called(email, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

// MockAPIKeysStore implements store.APIKeysStore for testing
type MockAPIKeysStore struct {
	mock.Mock
}

func (m *MockAPIKeysStore) CreateAPIKey(userID, name, prefix, digest string) (*model.APIKey, error) {
	args := m.Called(userID, name, prefix, digest)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.APIKey), args.Error(1)
}

func (m *MockAPIKeysStore) FindAPIKeyByDigest(digest string) (*model.APIKey, error) {
	args := m.Called(digest)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.APIKey), args.Error(1)
}

func (m *MockAPIKeysStore) FindAPIKey(id string) (*model.APIKey, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.APIKey), args.Error(1)
}

func (m *MockAPIKeysStore) ListAPIKeys(userID string) ([]model.APIKey, error) {
	args := m.Called(userID)
	return args.Get(0).([]model.APIKey), args.Error(1)
}

func (m *MockAPIKeysStore) RevokeAPIKey(id, userID string) error {
	args := m.Called(id, userID)
	return args.Error(0)
}

func (m *MockAPIKeysStore) TouchAPIKey(id string) error {
	args := m.Called(id)
	return args.Error(0)
}

// MockStatsStore implements store.StatsStore for testing
type MockStatsStore struct {
	mock.Mock
}

func (m *MockStatsStore) CountPackages() (int64, error) {
	args := m.Called()
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockStatsStore) CountTools() (int64, error) {
	args := m.Called()
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockStatsStore) CountCollections() (int64, error) {
	args := m.Called()
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockStatsStore) CountAgents() (int64, error) {
	args := m.Called()
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockStatsStore) TotalDownloads() (int64, error) {
	args := m.Called()
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockStatsStore) UpsertSnapshot(s model.StatsSnapshot) error {
	args := m.Called(s)
	return args.Error(0)
}

func (m *MockStatsStore) ListSnapshots(days int) ([]model.StatsSnapshot, error) {
	args := m.Called(days)
	return args.Get(0).([]model.StatsSnapshot), args.Error(1)
}

// MockHealthStore implements store.HealthStore for testing
type MockHealthStore struct {
	mock.Mock
}

func (m *MockHealthStore) CheckConnectivity() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockHealthStore) SaveHealthCheck(hc model.HealthCheck) error {
	args := m.Called(hc)
	return args.Error(0)
}

func (m *MockHealthStore) LatestHealthChecks() ([]model.HealthCheck, error) {
	args := m.Called()
	return args.Get(0).([]model.HealthCheck), args.Error(1)
}

func (m *MockHealthStore) HealthHistory(packageID string, limit int) ([]model.HealthCheck, error) {
	args := m.Called(packageID, limit)
	return args.Get(0).([]model.HealthCheck), args.Error(1)
}

// MockSyncLogsStore implements store.SyncLogsStore for testing
type MockSyncLogsStore struct {
	mock.Mock
}

func (m *MockSyncLogsStore) StartSyncLog(trigger string) (*model.SyncLog, error) {
	args := m.Called(trigger)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.SyncLog), args.Error(1)
}

func (m *MockSyncLogsStore) UpdateSyncCounts(id string, counts store.SyncCounts) error {
	args := m.Called(id, counts)
	return args.Error(0)
}

func (m *MockSyncLogsStore) FinishSyncLog(id string, status model.SyncStatus, syncErr string) error {
	args := m.Called(id, status, syncErr)
	return args.Error(0)
}

func (m *MockSyncLogsStore) ListSyncLogs(limit, offset int) ([]model.SyncLog, int64, error) {
	args := m.Called(limit, offset)
	return args.Get(0).([]model.SyncLog), args.Get(1).(int64), args.Error(2)
}

// MockSimulationsStore implements store.SimulationsStore for testing
type MockSimulationsStore struct {
	mock.Mock
}

func (m *MockSimulationsStore) SaveSimulation(s model.Simulation) (*model.Simulation, error) {
	args := m.Called(s)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Simulation), args.Error(1)
}

func (m *MockSimulationsStore) ListSimulations(userID string, limit, offset int) ([]model.Simulation, int64, error) {
	args := m.Called(userID, limit, offset)
	return args.Get(0).([]model.Simulation), args.Get(1).(int64), args.Error(2)
}

func (m *MockSimulationsStore) FindSimulation(id, userID string) (*model.Simulation, error) {
	args := m.Called(id, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Simulation), args.Error(1)
}

// MockCredentialsStore implements store.CredentialsStore for testing
type MockCredentialsStore struct {
	mock.Mock
}

func (m *MockCredentialsStore) UpsertCredential(c model.ProviderCredential) (*model.ProviderCredential, error) {
	args := m.Called(c)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ProviderCredential), args.Error(1)
}

func (m *MockCredentialsStore) FindCredential(userID, provider string) (*model.ProviderCredential, error) {
	args := m.Called(userID, provider)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ProviderCredential), args.Error(1)
}

func (m *MockCredentialsStore) DeleteCredential(userID, provider string) error {
	args := m.Called(userID, provider)
	return args.Error(0)
}
