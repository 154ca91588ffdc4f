package ingest

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"github.com/jwalitptl/salon-ingest/internal/model"
	"github.com/jwalitptl/salon-ingest/internal/repository"
	apperrors "github.com/jwalitptl/salon-ingest/pkg/errors"
)

// Resolution holds the tenant records a candidate maps onto.
type Resolution struct {
	ClientID      uuid.UUID
	ServiceID     uuid.UUID
	EmployeeID    uuid.UUID
	ClientCreated bool
}

// Resolver maps parsed text onto tenant-scoped records. Active services and
// employees are cached per tenant when a TTL is configured.
type Resolver struct {
	clients repository.ClientRepository
	catalog repository.CatalogRepository
	roster  *cache.Cache
}

func NewResolver(clients repository.ClientRepository, catalog repository.CatalogRepository, rosterTTL time.Duration) *Resolver {
	r := &Resolver{clients: clients, catalog: catalog}
	if rosterTTL > 0 {
		r.roster = cache.New(rosterTTL, 2*rosterTTL)
	}
	return r
}

// Resolve matches service and employee first so that an unresolvable
// notification never leaves a freshly created client behind.
func (r *Resolver) Resolve(ctx context.Context, tenantID uuid.UUID, cand *model.ParsedCandidate) (*Resolution, error) {
	services, err := r.services(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	service, err := matchService(services, cand.ServiceName)
	if err != nil {
		return nil, err
	}

	employees, err := r.employees(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	employee, err := matchEmployee(employees, cand.EmployeeFirstName)
	if err != nil {
		return nil, err
	}

	client, created, err := r.findOrCreateClient(ctx, tenantID, cand)
	if err != nil {
		return nil, err
	}

	return &Resolution{
		ClientID:      client.ID,
		ServiceID:     service.ID,
		EmployeeID:    employee.ID,
		ClientCreated: created,
	}, nil
}

// Invalidate drops the cached roster of one tenant.
func (r *Resolver) Invalidate(tenantID uuid.UUID) {
	if r.roster == nil {
		return
	}
	r.roster.Delete("services:" + tenantID.String())
	r.roster.Delete("employees:" + tenantID.String())
}

func (r *Resolver) services(ctx context.Context, tenantID uuid.UUID) ([]*model.Service, error) {
	key := "services:" + tenantID.String()
	if r.roster != nil {
		if cached, found := r.roster.Get(key); found {
			return cached.([]*model.Service), nil
		}
	}
	services, err := r.catalog.ListActiveServices(ctx, tenantID)
	if err != nil {
		return nil, apperrors.StoreFault("list services", err)
	}
	if r.roster != nil {
		r.roster.Set(key, services, cache.DefaultExpiration)
	}
	return services, nil
}

func (r *Resolver) employees(ctx context.Context, tenantID uuid.UUID) ([]*model.Employee, error) {
	key := "employees:" + tenantID.String()
	if r.roster != nil {
		if cached, found := r.roster.Get(key); found {
			return cached.([]*model.Employee), nil
		}
	}
	employees, err := r.catalog.ListActiveEmployees(ctx, tenantID)
	if err != nil {
		return nil, apperrors.StoreFault("list employees", err)
	}
	if r.roster != nil {
		r.roster.Set(key, employees, cache.DefaultExpiration)
	}
	return employees, nil
}

func (r *Resolver) findOrCreateClient(ctx context.Context, tenantID uuid.UUID, cand *model.ParsedCandidate) (*model.Client, bool, error) {
	client, err := r.clients.FindByPhone(ctx, tenantID, cand.Phone)
	if err == nil {
		return client, false, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, false, apperrors.StoreFault("find client", err)
	}

	client = &model.Client{
		Base:  model.Base{TenantID: tenantID},
		Name:  cand.ClientName,
		Phone: cand.Phone,
	}
	if cand.Email != "" {
		email := cand.Email
		client.Email = &email
	}
	if err := r.clients.Create(ctx, client); err != nil {
		return nil, false, apperrors.StoreFault("create client", err)
	}
	return client, true, nil
}

// matchService prefers an exact case-insensitive name and falls back to a
// single substring match in either direction.
func matchService(services []*model.Service, name string) (*model.Service, error) {
	needle := strings.ToLower(strings.TrimSpace(name))
	var exact, partial []*model.Service
	for _, s := range services {
		hay := strings.ToLower(strings.TrimSpace(s.Name))
		if hay == "" {
			continue
		}
		switch {
		case hay == needle:
			exact = append(exact, s)
		case strings.Contains(hay, needle) || strings.Contains(needle, hay):
			partial = append(partial, s)
		}
	}

	switch {
	case len(exact) == 1:
		return exact[0], nil
	case len(exact) > 1:
		return nil, apperrors.UnresolvedReference("service", fmt.Sprintf("service %q matches %d active services", name, len(exact)))
	case len(partial) == 1:
		return partial[0], nil
	case len(partial) > 1:
		return nil, apperrors.UnresolvedReference("service", fmt.Sprintf("service %q is ambiguous: %d partial matches", name, len(partial)))
	}
	return nil, apperrors.UnresolvedReference("service", fmt.Sprintf("no active service matches %q", name))
}

func matchEmployee(employees []*model.Employee, firstName string) (*model.Employee, error) {
	name := strings.TrimSpace(firstName)
	var found []*model.Employee
	for _, e := range employees {
		if strings.EqualFold(strings.TrimSpace(e.FirstName), name) {
			found = append(found, e)
		}
	}
	switch len(found) {
	case 1:
		return found[0], nil
	case 0:
		return nil, apperrors.UnresolvedReference("employee", fmt.Sprintf("no active employee named %q", firstName))
	}
	return nil, apperrors.UnresolvedReference("employee", fmt.Sprintf("employee name %q matches %d active employees", firstName, len(found)))
}
