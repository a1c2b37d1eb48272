package chat

import (
	"context"
	"fmt"
	"sync"

	"github.com/cloudwego/eino/schema"

	"parithera-api/internal/domain/entity"
	"parithera-api/internal/domain/repository"
	"parithera-api/internal/infrastructure/messaging"
)

// fakeGateway 按脚本顺序返回预置回答的 LLM 网关
type fakeGateway struct {
	mu      sync.Mutex
	answers []string
	errs    []error
	calls   [][]*schema.Message
}

func (g *fakeGateway) Complete(ctx context.Context, messages []*schema.Message) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	idx := len(g.calls)
	g.calls = append(g.calls, messages)

	if idx < len(g.errs) && g.errs[idx] != nil {
		return "", g.errs[idx]
	}
	if idx >= len(g.answers) {
		return "", fmt.Errorf("unexpected llm call #%d", idx+1)
	}
	return g.answers[idx], nil
}

type fakeMemberships struct {
	allowed bool
	err     error
}

func (f *fakeMemberships) Create(ctx context.Context, membership *entity.Membership) error {
	return nil
}

func (f *fakeMemberships) GetByOrgAndUser(ctx context.Context, organizationID, userID string) (*entity.Membership, error) {
	return nil, nil
}

func (f *fakeMemberships) HasRequiredRole(ctx context.Context, organizationID, userID string, required entity.MemberRole) (bool, error) {
	return f.allowed, f.err
}

func (f *fakeMemberships) UpdateRole(ctx context.Context, organizationID, userID string, role entity.MemberRole) error {
	return nil
}

func (f *fakeMemberships) Delete(ctx context.Context, organizationID, userID string) error {
	return nil
}

func (f *fakeMemberships) ListByOrganization(ctx context.Context, organizationID string, pagination repository.Pagination) (*repository.PagedResult[*entity.Membership], error) {
	return nil, nil
}

type fakeProjects struct {
	projects map[string]*entity.Project
}

func newFakeProjects(projects ...*entity.Project) *fakeProjects {
	f := &fakeProjects{projects: make(map[string]*entity.Project)}
	for _, p := range projects {
		f.projects[p.ID] = p
	}
	return f
}

func (f *fakeProjects) Create(ctx context.Context, project *entity.Project) error {
	f.projects[project.ID] = project
	return nil
}

func (f *fakeProjects) GetByID(ctx context.Context, id string) (*entity.Project, error) {
	return f.projects[id], nil
}

func (f *fakeProjects) GetByIDWithSamples(ctx context.Context, id string) (*entity.Project, error) {
	return f.projects[id], nil
}

func (f *fakeProjects) Update(ctx context.Context, project *entity.Project) error { return nil }

func (f *fakeProjects) Delete(ctx context.Context, id string) error { return nil }

func (f *fakeProjects) ListByOrganization(ctx context.Context, organizationID string, pagination repository.Pagination) (*repository.PagedResult[*entity.Project], error) {
	return nil, nil
}

func (f *fakeProjects) LinkSample(ctx context.Context, projectID, sampleID string) error { return nil }

func (f *fakeProjects) UnlinkSample(ctx context.Context, projectID, sampleID string) error {
	return nil
}

// fakeChats 以 projectID 为键的内存对话存储
type fakeChats struct {
	mu        sync.Mutex
	chats     map[string]*entity.Chat
	createErr error
}

func newFakeChats() *fakeChats {
	return &fakeChats{chats: make(map[string]*entity.Chat)}
}

func (f *fakeChats) Create(ctx context.Context, chat *entity.Chat) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	if _, ok := f.chats[chat.ProjectID]; ok {
		return fmt.Errorf("duplicate chat for project %s", chat.ProjectID)
	}
	cp := *chat
	f.chats[chat.ProjectID] = &cp
	return nil
}

func (f *fakeChats) GetByProject(ctx context.Context, projectID string) (*entity.Chat, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	chat, ok := f.chats[projectID]
	if !ok {
		return nil, nil
	}
	cp := *chat
	cp.Messages = append([]entity.Message(nil), chat.Messages...)
	return &cp, nil
}

func (f *fakeChats) GetByProjectForUpdate(ctx context.Context, projectID string) (*entity.Chat, error) {
	return f.GetByProject(ctx, projectID)
}

func (f *fakeChats) Update(ctx context.Context, chat *entity.Chat) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *chat
	f.chats[chat.ProjectID] = &cp
	return nil
}

func (f *fakeChats) DeleteByProject(ctx context.Context, projectID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.chats, projectID)
	return nil
}

// fakeResults 前 nilBefore 次查询返回空，之后返回预置结果
type fakeResults struct {
	mu        sync.Mutex
	nilBefore int
	result    *entity.Result
	calls     int
}

func (f *fakeResults) Create(ctx context.Context, result *entity.Result) error { return nil }

func (f *fakeResults) GetByAnalysisAndPlugin(ctx context.Context, analysisID string, plugin entity.PluginKind) (*entity.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.calls <= f.nilBefore {
		return nil, nil
	}
	return f.result, nil
}

type fakeAnalyzers struct {
	analyzer *entity.Analyzer
}

func (f *fakeAnalyzers) Create(ctx context.Context, analyzer *entity.Analyzer) error { return nil }

func (f *fakeAnalyzers) GetByName(ctx context.Context, organizationID, name string) (*entity.Analyzer, error) {
	return f.analyzer, nil
}

func (f *fakeAnalyzers) ListByOrganization(ctx context.Context, organizationID string, pagination repository.Pagination) (*repository.PagedResult[*entity.Analyzer], error) {
	return nil, nil
}

type fakeAnalyses struct {
	nextID        string
	created       []*entity.Analysis
	statusUpdates map[string]entity.AnalysisStatus
}

func newFakeAnalyses(nextID string) *fakeAnalyses {
	return &fakeAnalyses{
		nextID:        nextID,
		statusUpdates: make(map[string]entity.AnalysisStatus),
	}
}

func (f *fakeAnalyses) Create(ctx context.Context, analysis *entity.Analysis) error {
	analysis.ID = f.nextID
	f.created = append(f.created, analysis)
	return nil
}

func (f *fakeAnalyses) GetByID(ctx context.Context, id string) (*entity.Analysis, error) {
	return nil, nil
}

func (f *fakeAnalyses) Update(ctx context.Context, analysis *entity.Analysis) error { return nil }

func (f *fakeAnalyses) UpdateStatus(ctx context.Context, id string, status entity.AnalysisStatus) error {
	f.statusUpdates[id] = status
	return nil
}

func (f *fakeAnalyses) ListByProject(ctx context.Context, projectID string, pagination repository.Pagination) (*repository.PagedResult[*entity.Analysis], error) {
	return nil, nil
}

type fakeUsers struct {
	user *entity.User
}

func (f *fakeUsers) Create(ctx context.Context, user *entity.User) error { return nil }

func (f *fakeUsers) GetByID(ctx context.Context, id string) (*entity.User, error) {
	return f.user, nil
}

func (f *fakeUsers) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	return nil, nil
}

func (f *fakeUsers) Update(ctx context.Context, user *entity.User) error { return nil }

func (f *fakeUsers) Delete(ctx context.Context, id string) error { return nil }

func (f *fakeUsers) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	return false, nil
}

// fakeTx 直接执行回调，不开真实事务
type fakeTx struct{}

func (fakeTx) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type fakePublisher struct {
	mu        sync.Mutex
	published []*messaging.DispatcherPluginMessage
	err       error
}

func (f *fakePublisher) PublishDispatch(ctx context.Context, msg *messaging.DispatcherPluginMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.published = append(f.published, msg)
	return nil
}

type fakeMailer struct {
	mu       sync.Mutex
	finished []string
}

func (f *fakeMailer) SendUserGreeting(ctx context.Context, to, firstName string) error { return nil }

func (f *fakeMailer) SendAnalysisFinished(ctx context.Context, to, projectName, analysisID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.finished = append(f.finished, analysisID)
	return nil
}

// recordingEmitter 记录推送的全部事件信封
type recordingEmitter struct {
	mu        sync.Mutex
	envelopes []Envelope
}

func (e *recordingEmitter) Emit(ctx context.Context, env Envelope) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.envelopes = append(e.envelopes, env)
}

func (e *recordingEmitter) statuses() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]string, 0, len(e.envelopes))
	for _, env := range e.envelopes {
		out = append(out, env.Data.Status)
	}
	return out
}

func pythonResult(errors ...string) *entity.Result {
	return &entity.Result{
		ID:         "result-1",
		AnalysisID: "analysis-1",
		Plugin:     entity.PluginKindPython,
		Result: &entity.ResultPayload{
			AnalysisInfo: entity.AnalysisInfo{Errors: errors},
		},
	}
}
