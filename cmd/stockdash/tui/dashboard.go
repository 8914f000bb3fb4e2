// Package tui is the interactive dashboard. The model owns the stores, views
// and editors of one session and runs every remote call as a tea.Cmd.
package tui

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/marshallshelly/stockdash/pkg/apperr"
	"github.com/marshallshelly/stockdash/pkg/form"
	"github.com/marshallshelly/stockdash/pkg/model"
	"github.com/marshallshelly/stockdash/pkg/report"
	"github.com/marshallshelly/stockdash/pkg/session"
	"github.com/marshallshelly/stockdash/pkg/store"
	"github.com/marshallshelly/stockdash/pkg/view"
)

// Deps are the stores the dashboard works on.
type Deps struct {
	Session      *session.State
	Products     *store.ProductStore
	Transactions *store.TransactionStore
	Users        *store.UserStore
	Stats        *store.DashboardStore
	Theme        string
}

type tab int

const (
	tabProducts tab = iota
	tabTransactions
	tabUsers
)

func (t tab) String() string {
	switch t {
	case tabTransactions:
		return "Transactions"
	case tabUsers:
		return "Users"
	default:
		return "Products"
	}
}

// Filter kinds cycled with the f key, per tab.
var kinds = map[tab][]string{
	tabProducts:     {"", view.KindLowStock, view.KindOutOfStock},
	tabTransactions: {"", string(model.Purchase), string(model.Sale)},
	tabUsers:        {"", string(model.RoleAdmin), string(model.RoleUser)},
}

type dashMode int

const (
	modeBrowse dashMode = iota
	modeSearch
	modeConfirm
)

// Messages
type loadedMsg struct {
	tab tab
	err error
}

type statsLoadedMsg struct {
	err error
}

type actionMsg struct {
	success  string
	err      error
	fallback string
}

type clearSuccessMsg struct {
	gen int
}

// Model is the bubbletea model of the dashboard.
type Model struct {
	deps Deps
	st   styles
	mode dashMode
	tab  tab
	tabs []tab

	products     *view.View[model.Product]
	transactions *view.View[model.Transaction]
	users        *view.View[model.User]
	adjust       *form.StockAdjustmentEditor

	table   table.Model
	search  textinput.Model
	confirm ConfirmationDialog
	rowIDs  []string
	pager   string
	shown   tab

	errMsg     string
	success    string
	successGen int
	width      int
	height     int
}

// New creates the dashboard model. Admins also get the users tab.
func New(deps Deps) Model {
	search := textinput.New()
	search.Prompt = "/ "
	search.Placeholder = "search"
	search.CharLimit = 64

	tabs := []tab{tabProducts, tabTransactions}
	if deps.Session.IsAdmin() {
		tabs = append(tabs, tabUsers)
	}

	m := Model{
		deps:         deps,
		st:           newStyles(deps.Theme),
		tabs:         tabs,
		products:     view.NewProductView(),
		transactions: view.NewTransactionView(),
		users:        view.NewUserView(),
		adjust:       form.NewStockAdjustmentEditor(deps.Products),
		table:        table.New(table.WithFocused(true), table.WithHeight(view.ProductPageSize)),
		search:       search,
		shown:        -1,
	}
	m.refresh()
	return m
}

// Init loads every tab and the statistics.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.loadStatsCmd()}
	for _, t := range m.tabs {
		cmds = append(cmds, m.loadCmd(t))
	}
	return tea.Batch(cmds...)
}

// Commands
func (m Model) loadCmd(t tab) tea.Cmd {
	deps := m.deps
	return func() tea.Msg {
		ctx := context.Background()
		var err error
		switch t {
		case tabProducts:
			err = deps.Products.Load(ctx, model.ProductQuery{})
		case tabTransactions:
			err = deps.Transactions.Load(ctx, model.TransactionQuery{})
		case tabUsers:
			err = deps.Users.Load(ctx, store.NoQuery{})
		}
		return loadedMsg{tab: t, err: err}
	}
}

func (m Model) loadStatsCmd() tea.Cmd {
	stats := m.deps.Stats
	return func() tea.Msg {
		return statsLoadedMsg{err: stats.Load(context.Background(), model.DateRange{})}
	}
}

func (m Model) deleteCmd(t tab, id string) tea.Cmd {
	deps := m.deps
	return func() tea.Msg {
		ctx := context.Background()
		switch t {
		case tabProducts:
			return actionMsg{success: "Product deleted successfully", fallback: "Failed to delete product", err: deps.Products.Delete(ctx, id)}
		case tabTransactions:
			return actionMsg{success: "Transaction deleted successfully", fallback: "Failed to delete transaction", err: deps.Transactions.Delete(ctx, id)}
		default:
			u, ok := deps.Users.Find(id)
			if !ok {
				return actionMsg{err: apperr.ErrNotFound}
			}
			return actionMsg{success: "User deleted successfully", fallback: "Failed to delete user", err: deps.Users.Delete(ctx, u)}
		}
	}
}

func (m Model) adjustCmd(p model.Product, typ model.AdjustmentType) tea.Cmd {
	ed := m.adjust
	return func() tea.Msg {
		ed.StartEdit(p)
		ed.Update(func(adj *model.StockAdjustment) {
			adj.Quantity = 1
			adj.Type = typ
		})
		err := ed.Save(context.Background())
		return actionMsg{success: ed.Success(), err: err, fallback: "Failed to adjust stock"}
	}
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.table.SetHeight(max(msg.Height-14, 5))
		return m, nil

	case loadedMsg:
		if msg.err != nil && msg.tab == m.tab {
			m.errMsg = m.storeErr(msg.tab)
		}
		m.refresh()
		return m, nil

	case statsLoadedMsg:
		if msg.err != nil {
			m.errMsg = m.deps.Stats.Err()
		}
		return m, nil

	case actionMsg:
		if msg.err != nil {
			m.errMsg = apperr.Message(msg.err, msg.fallback)
			m.refresh()
			return m, nil
		}
		if !m.deps.Session.IsAuthenticated() {
			return m, tea.Quit
		}
		m.refresh()
		m.successGen++
		m.success = msg.success
		gen := m.successGen
		return m, tea.Batch(m.loadStatsCmd(), tea.Tick(form.SuccessDuration, func(time.Time) tea.Msg {
			return clearSuccessMsg{gen: gen}
		}))

	case clearSuccessMsg:
		if msg.gen == m.successGen {
			m.success = ""
		}
		return m, nil

	case tea.KeyMsg:
		switch m.mode {
		case modeConfirm:
			return m.updateConfirm(msg)
		case modeSearch:
			return m.updateSearch(msg)
		default:
			return m.updateBrowse(msg)
		}
	}
	return m, nil
}

func (m Model) updateConfirm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "y", "n", "esc", "q", "enter":
		m.mode = modeBrowse
	}
	cmd := m.confirm.Update(msg)
	return m, cmd
}

func (m Model) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "enter":
		m.mode = modeBrowse
		m.search.Blur()
		return m, nil
	case "esc":
		m.mode = modeBrowse
		m.search.Blur()
		m.search.SetValue("")
		m.setSearch("")
		m.refresh()
		return m, nil
	}

	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	m.setSearch(m.search.Value())
	m.refresh()
	return m, cmd
}

func (m Model) updateBrowse(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	if key != "up" && key != "down" && key != "k" && key != "j" {
		m.errMsg = ""
	}

	switch key {
	case "ctrl+c", "q":
		return m, tea.Quit

	case "tab", "shift+tab":
		step := 1
		if key == "shift+tab" {
			step = len(m.tabs) - 1
		}
		for i, t := range m.tabs {
			if t == m.tab {
				m.tab = m.tabs[(i+step)%len(m.tabs)]
				break
			}
		}
		m.search.SetValue(m.params().Search)
		if err := m.storeErr(m.tab); err != "" {
			m.errMsg = err
		}
		m.refresh()
		return m, nil

	case "/":
		m.mode = modeSearch
		cmd := m.search.Focus()
		return m, cmd

	case "f":
		m.cycleKind()
		m.refresh()
		return m, nil

	case "esc":
		m.resetView()
		m.search.SetValue("")
		m.refresh()
		return m, nil

	case "left", "pgup", "right", "pgdown":
		page := m.params().Page
		if key == "left" || key == "pgup" {
			page--
		} else {
			page++
		}
		m.setPage(page)
		m.refresh()
		return m, nil

	case "r":
		return m, tea.Batch(m.loadCmd(m.tab), m.loadStatsCmd())

	case "d", "delete":
		cmd := m.startDelete()
		return m, cmd

	case "+", "-":
		if m.tab != tabProducts {
			return m, nil
		}
		p, ok := m.selectedProduct()
		if !ok {
			return m, nil
		}
		typ := model.AdjustIn
		if key == "-" {
			typ = model.AdjustOut
		}
		return m, m.adjustCmd(p, typ)

	case "up", "down", "k", "j":
		var cmd tea.Cmd
		m.table, cmd = m.table.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *Model) startDelete() tea.Cmd {
	if !m.deps.Session.IsAdmin() {
		m.errMsg = apperr.ErrAdminRequired.Error()
		return nil
	}
	cursor := m.table.Cursor()
	if cursor < 0 || cursor >= len(m.rowIDs) {
		return nil
	}
	id := m.rowIDs[cursor]
	del := m.deleteCmd(m.tab, id)

	m.confirm = NewConfirmationDialog("Confirm Delete", m.describe(m.tab, id))
	m.confirm.OnConfirm = func() tea.Cmd { return del }
	m.mode = modeConfirm
	return nil
}

func (m Model) describe(t tab, id string) string {
	switch t {
	case tabProducts:
		if p, ok := m.deps.Products.Find(id); ok {
			return fmt.Sprintf("Delete product %s (%s)?", p.Name, p.SKU)
		}
	case tabTransactions:
		for _, tx := range m.deps.Transactions.Snapshot() {
			if tx.ID == id {
				return fmt.Sprintf("Delete %s of %d × %s?\nIts stock change will be reversed.", tx.Type, tx.Quantity, tx.ProductName)
			}
		}
	case tabUsers:
		if u, ok := m.deps.Users.Find(id); ok {
			if m.deps.Session.IsCurrent(u) {
				return "Delete your own account?\nYou will be logged out."
			}
			return fmt.Sprintf("Delete user %s <%s>?", u.Name, u.Email)
		}
	}
	return "Delete this record?"
}

func (m Model) selectedProduct() (model.Product, bool) {
	cursor := m.table.Cursor()
	if cursor < 0 || cursor >= len(m.rowIDs) {
		return model.Product{}, false
	}
	return m.deps.Products.Find(m.rowIDs[cursor])
}

func (m Model) storeErr(t tab) string {
	switch t {
	case tabProducts:
		return m.deps.Products.Err()
	case tabTransactions:
		return m.deps.Transactions.Err()
	default:
		return m.deps.Users.Err()
	}
}

func (m Model) params() view.Params {
	switch m.tab {
	case tabTransactions:
		return m.transactions.Params()
	case tabUsers:
		return m.users.Params()
	default:
		return m.products.Params()
	}
}

func (m *Model) setSearch(s string) {
	switch m.tab {
	case tabTransactions:
		m.transactions.SetSearch(s)
	case tabUsers:
		m.users.SetSearch(s)
	default:
		m.products.SetSearch(s)
	}
}

func (m *Model) setPage(page int) {
	switch m.tab {
	case tabTransactions:
		m.transactions.SetPage(page)
	case tabUsers:
		m.users.SetPage(page)
	default:
		m.products.SetPage(page)
	}
}

func (m *Model) resetView() {
	switch m.tab {
	case tabTransactions:
		m.transactions.Reset()
	case tabUsers:
		m.users.Reset()
	default:
		m.products.Reset()
	}
}

// cycleKind moves the filter to the next kind of the current tab.
func (m *Model) cycleKind() {
	options := kinds[m.tab]
	current := m.params().Kind
	next := options[0]
	for i, k := range options {
		if k == current {
			next = options[(i+1)%len(options)]
			break
		}
	}
	switch m.tab {
	case tabTransactions:
		m.transactions.SetKind(next)
	case tabUsers:
		m.users.SetKind(next)
	default:
		m.products.SetKind(next)
	}
}

// refresh recomputes the visible page from the current store snapshot.
func (m *Model) refresh() {
	var cols []table.Column
	var rows []table.Row
	m.rowIDs = nil

	switch m.tab {
	case tabTransactions:
		page := m.transactions.Compute(m.deps.Transactions.Snapshot())
		cols = []table.Column{
			{Title: "Date", Width: 16}, {Title: "Type", Width: 8}, {Title: "Product", Width: 22},
			{Title: "Qty", Width: 5}, {Title: "Total", Width: 10}, {Title: "User", Width: 12},
		}
		for _, tx := range page.Rows {
			rows = append(rows, table.Row{
				tx.Date.Local().Format("2006-01-02 15:04"), string(tx.Type), tx.ProductName,
				strconv.Itoa(tx.Quantity), tx.TotalAmount.StringFixed(2), tx.UserName,
			})
			m.rowIDs = append(m.rowIDs, tx.ID)
		}
		m.pager = pagerView(m.st, page.Page, page.TotalPages, page.Matched, page.Window)

	case tabUsers:
		page := m.users.Compute(m.deps.Users.Snapshot())
		cols = []table.Column{{Title: "Name", Width: 20}, {Title: "Email", Width: 30}, {Title: "Role", Width: 8}}
		for _, u := range page.Rows {
			name := u.Name
			if m.deps.Session.IsCurrent(u) {
				name += " (you)"
			}
			rows = append(rows, table.Row{name, u.Email, string(u.Role)})
			m.rowIDs = append(m.rowIDs, u.ID)
		}
		m.pager = pagerView(m.st, page.Page, page.TotalPages, page.Matched, page.Window)

	default:
		page := m.products.Compute(m.deps.Products.Snapshot())
		cols = []table.Column{
			{Title: "SKU", Width: 10}, {Title: "Name", Width: 24}, {Title: "Category", Width: 12},
			{Title: "Price", Width: 9}, {Title: "Stock", Width: 6}, {Title: "Status", Width: 13},
		}
		for _, p := range page.Rows {
			rows = append(rows, table.Row{
				p.SKU, p.Name, p.Category, p.UnitPrice.StringFixed(2), strconv.Itoa(p.StockLevel), report.StockStatus(p),
			})
			m.rowIDs = append(m.rowIDs, p.ID)
		}
		m.pager = pagerView(m.st, page.Page, page.TotalPages, page.Matched, page.Window)
	}

	// Rows must never be wider than the columns, so clear them first.
	if m.shown != m.tab {
		m.table.SetRows(nil)
		m.table.SetColumns(cols)
		m.table.SetCursor(0)
		m.shown = m.tab
	}
	m.table.SetRows(rows)
	// An empty table leaves the cursor at -1.
	if c := m.table.Cursor(); len(rows) > 0 && (c < 0 || c >= len(rows)) {
		m.table.SetCursor(min(max(c, 0), len(rows)-1))
	}
}

// View renders the UI
func (m Model) View() string {
	if m.mode == modeConfirm {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, m.confirm.view(m.st))
	}

	var b strings.Builder
	b.WriteString(m.header())
	b.WriteString("\n\n")
	b.WriteString(m.tabBar())
	b.WriteString("\n")

	filter := m.params().Kind
	if filter == "" {
		filter = "all"
	}
	b.WriteString(m.search.View())
	b.WriteString("  ")
	b.WriteString(m.st.muted.Render("filter: " + filter))
	b.WriteString("\n\n")

	if m.loading() {
		b.WriteString(m.st.info.Render("Loading..."))
		b.WriteString("\n")
	}
	b.WriteString(m.table.View())
	b.WriteString("\n")
	b.WriteString(m.pager)
	b.WriteString("\n")
	if m.tab == tabProducts {
		if p, ok := m.selectedProduct(); ok {
			b.WriteString(m.st.muted.Render(fmt.Sprintf("%s · %s · min %d", p.Name, p.Supplier, p.MinStockThreshold)))
			b.WriteString("  ")
			b.WriteString(m.st.stockStatus(report.StockStatus(p)))
		}
		b.WriteString("\n")
	}

	switch {
	case m.errMsg != "":
		b.WriteString(m.st.errorLine.Render("✗ " + m.errMsg))
	case m.success != "":
		b.WriteString(m.st.success.Render("✓ " + m.success))
	}
	b.WriteString("\n")
	b.WriteString(m.help())
	return b.String()
}

func (m Model) loading() bool {
	switch m.tab {
	case tabTransactions:
		return m.deps.Transactions.Loading()
	case tabUsers:
		return m.deps.Users.Loading()
	default:
		return m.deps.Products.Loading()
	}
}

func (m Model) header() string {
	who := "not logged in"
	if u, ok := m.deps.Session.CurrentUser(); ok {
		who = fmt.Sprintf("%s (%s)", u.Name, u.Role)
	}
	title := m.st.title.Render("stockdash") + "  " + m.st.subtitle.Render(who)

	s := m.deps.Stats.Stats()
	stats := fmt.Sprintf("Products %d · Low stock %s · Out of stock %s · Value %s",
		s.TotalProducts,
		m.st.warning.Render(strconv.Itoa(s.LowStockCount)),
		m.st.danger.Render(strconv.Itoa(s.OutOfStockCount)),
		s.InventoryValue.StringFixed(2))
	if m.tab == tabTransactions {
		t := store.SumTransactions(view.Filter(view.TransactionSpec, m.deps.Transactions.Snapshot(), m.transactions.Params()))
		stats = fmt.Sprintf("Purchases %s · Sales %s · Net %s",
			t.Purchases.StringFixed(2), t.Sales.StringFixed(2), t.Net().StringFixed(2))
	}
	if m.tab == tabUsers && m.deps.Users.Offline() {
		stats = m.st.warning.Render("Server unavailable, showing cached users")
	}
	return title + "\n" + stats
}

func (m Model) tabBar() string {
	parts := make([]string, len(m.tabs))
	for i, t := range m.tabs {
		if t == m.tab {
			parts[i] = m.st.activeTab.Render(t.String())
		} else {
			parts[i] = m.st.inactiveTab.Render(t.String())
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

func (m Model) help() string {
	if m.mode == modeSearch {
		return m.st.help.Render(m.st.key("enter", "keep") + " • " + m.st.key("esc", "clear"))
	}
	keys := []string{
		m.st.key("tab", "switch"),
		m.st.key("/", "search"),
		m.st.key("f", "filter"),
		m.st.key("←/→", "page"),
		m.st.key("r", "reload"),
	}
	if m.deps.Session.IsAdmin() {
		keys = append(keys, m.st.key("d", "delete"))
		if m.tab == tabProducts {
			keys = append(keys, m.st.key("+/-", "stock"))
		}
	}
	keys = append(keys, m.st.key("q", "quit"))
	return m.st.help.Render(strings.Join(keys, " • "))
}

// Run starts the interactive dashboard.
func Run(deps Deps) error {
	p := tea.NewProgram(New(deps), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
