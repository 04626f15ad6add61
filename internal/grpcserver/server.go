// Package grpcserver implements the MatchingService gRPC server.
//
// It delegates all business logic to matching.Ranker and lifecycle.Service and
// handles only the gRPC transport concerns: metadata extraction, error
// mapping, and conversion between domain types and Struct messages.
package grpcserver

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"hiretop/matching-service/internal/lifecycle"
	"hiretop/matching-service/internal/matching"
	"hiretop/matching-service/internal/model"
	"hiretop/matching-service/internal/validation"
)

// Server implements MatchingServiceServer.
type Server struct {
	ranker *matching.Ranker
	svc    *lifecycle.Service
	log    *zap.Logger
	now    func() time.Time
}

// NewServer constructs a gRPC Server backed by the ranker and lifecycle service.
func NewServer(ranker *matching.Ranker, svc *lifecycle.Service, log *zap.Logger) *Server {
	return &Server{ranker: ranker, svc: svc, log: log, now: time.Now}
}

// ─── RPC implementations ──────────────────────────────────────────────────────

// RankOffers ranks open offers for the calling talent.
func (s *Server) RankOffers(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	userID, err := userIDFromCtx(ctx)
	if err != nil {
		return nil, err
	}
	f, err := offerFilter(req)
	if err != nil {
		return nil, s.toGRPCError(err)
	}
	p, err := pagination(req)
	if err != nil {
		return nil, s.toGRPCError(err)
	}

	page, err := s.ranker.RankOffersForTalent(ctx, userID, f, p, s.now())
	if err != nil {
		return nil, s.toGRPCError(err)
	}
	data := make([]any, 0, len(page.Data))
	for i := range page.Data {
		data = append(data, offerMatchToMap(&page.Data[i]))
	}
	return newStruct(map[string]any{"total": page.Total, "data": data})
}

// RankApplicants ranks the applicants of one of the caller's company offers.
func (s *Server) RankApplicants(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	actor, err := s.actor(ctx)
	if err != nil {
		return nil, err
	}
	offerID := str(req, "jobOfferId")
	if err := s.svc.AuthorizeOffer(ctx, actor, offerID); err != nil {
		return nil, s.toGRPCError(err)
	}
	p, err := pagination(req)
	if err != nil {
		return nil, s.toGRPCError(err)
	}

	page, err := s.ranker.RankApplicantsForOffer(ctx, offerID, p)
	if err != nil {
		return nil, s.toGRPCError(err)
	}
	data := make([]any, 0, len(page.Data))
	for i := range page.Data {
		data = append(data, applicantMatchToMap(&page.Data[i]))
	}
	return newStruct(map[string]any{"total": page.Total, "data": data})
}

// Statistics counts the caller's company applications by status.
func (s *Server) Statistics(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	actor, err := s.actor(ctx)
	if err != nil {
		return nil, err
	}
	if actor.CompanyID == nil {
		return nil, s.toGRPCError(lifecycle.ErrAccessDenied)
	}
	start, err := timeField(req, "start")
	if err != nil {
		return nil, s.toGRPCError(err)
	}
	end, err := timeField(req, "end")
	if err != nil {
		return nil, s.toGRPCError(err)
	}
	f, err := statsFilter(req)
	if err != nil {
		return nil, s.toGRPCError(err)
	}

	counts, err := s.ranker.Statistics(ctx, actor.CompanyID.String(), matching.DateRange{Start: start, End: end}, f)
	if err != nil {
		return nil, s.toGRPCError(err)
	}
	out := make(map[string]any, len(counts))
	for st, n := range counts {
		out[string(st)] = n
	}
	return newStruct(out)
}

// Apply submits the calling talent's application to an offer.
func (s *Server) Apply(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	actor, err := s.actor(ctx)
	if err != nil {
		return nil, err
	}
	app, err := s.svc.Apply(ctx, actor, str(req, "jobOfferId"))
	if err != nil {
		return nil, s.toGRPCError(err)
	}
	return newStruct(applicationToMap(app))
}

// Accept accepts an application and books its interview.
func (s *Server) Accept(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	actor, err := s.actor(ctx)
	if err != nil {
		return nil, err
	}
	startedAt, err := timeField(req, "startedAt")
	if err != nil {
		return nil, s.toGRPCError(err)
	}
	endedAt, err := timeField(req, "endedAt")
	if err != nil {
		return nil, s.toGRPCError(err)
	}

	app, err := s.svc.Accept(ctx, actor, lifecycle.AcceptRequest{
		ApplicationID: str(req, "jobApplicationId"),
		Message:       str(req, "message"),
		StartedAt:     startedAt,
		EndedAt:       endedAt,
	})
	if err != nil {
		return nil, s.toGRPCError(err)
	}
	return newStruct(applicationToMap(app))
}

// Reject rejects an application.
func (s *Server) Reject(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	actor, err := s.actor(ctx)
	if err != nil {
		return nil, err
	}
	app, err := s.svc.Reject(ctx, actor, lifecycle.RejectRequest{
		ApplicationID: str(req, "jobApplicationId"),
		Message:       str(req, "message"),
	})
	if err != nil {
		return nil, s.toGRPCError(err)
	}
	return newStruct(applicationToMap(app))
}

// GetApplication returns one application to its applicant or owning company.
func (s *Server) GetApplication(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	actor, err := s.actor(ctx)
	if err != nil {
		return nil, err
	}
	app, err := s.svc.Get(ctx, actor, str(req, "jobApplicationId"))
	if err != nil {
		return nil, s.toGRPCError(err)
	}
	return newStruct(applicationToMap(app))
}

// ─── Helpers ─────────────────────────────────────────────────────────────────

// userIDFromCtx extracts the x-user-id value forwarded by the Gateway
// via gRPC metadata.
func userIDFromCtx(ctx context.Context) (string, error) {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return "", status.Error(codes.Unauthenticated, "missing metadata")
	}
	vals := md.Get("x-user-id")
	if len(vals) == 0 || vals[0] == "" {
		return "", status.Error(codes.Unauthenticated, "missing x-user-id metadata")
	}
	return vals[0], nil
}

func (s *Server) actor(ctx context.Context) (lifecycle.Actor, error) {
	userID, err := userIDFromCtx(ctx)
	if err != nil {
		return lifecycle.Actor{}, err
	}
	actor, err := s.svc.ActorFor(ctx, userID)
	if err != nil {
		return lifecycle.Actor{}, s.toGRPCError(err)
	}
	return actor, nil
}

// toGRPCError maps domain errors to gRPC status errors.
func (s *Server) toGRPCError(err error) error {
	var ve *validation.ValidationError
	switch {
	case errors.As(err, &ve):
		return validationStatus(ve)
	case errors.Is(err, lifecycle.ErrAccessDenied):
		return status.Error(codes.PermissionDenied, err.Error())
	case errors.Is(err, lifecycle.ErrInvalidState), errors.Is(err, lifecycle.ErrOfferClosed):
		return status.Error(codes.FailedPrecondition, err.Error())
	case errors.Is(err, lifecycle.ErrOfferNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, lifecycle.ErrAlreadyApplied):
		return status.Error(codes.AlreadyExists, err.Error())
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	}
	s.log.Error("internal error", zap.Error(err))
	return status.Error(codes.Internal, "internal server error")
}

// validationStatus carries the offending fields as a Struct detail.
func validationStatus(ve *validation.ValidationError) error {
	st := status.New(codes.InvalidArgument, ve.Error())
	fields := make([]any, 0, len(ve.Fields))
	for _, f := range ve.Fields {
		fields = append(fields, map[string]any{"field": f.Field, "message": f.Message})
	}
	detail, err := structpb.NewStruct(map[string]any{"fields": fields})
	if err != nil {
		return st.Err()
	}
	if withDetail, err := st.WithDetails(detail); err == nil {
		return withDetail.Err()
	}
	return st.Err()
}

// UnaryRecover logs a handler panic and answers codes.Internal.
func UnaryRecover(log *zap.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (resp any, err error) {
		defer func() {
			if r := recover(); r != nil {
				log.Error("rpc panic",
					zap.String("method", info.FullMethod),
					zap.String("panic", fmt.Sprint(r)),
					zap.Stack("stack"),
				)
				resp, err = nil, status.Error(codes.Internal, "internal server error")
			}
		}()
		return handler(ctx, req)
	}
}

// UnaryLogger logs every call with its status code and latency.
func UnaryLogger(log *zap.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		log.Info("rpc",
			zap.String("method", info.FullMethod),
			zap.Stringer("code", status.Code(err)),
			zap.Duration("elapsed", time.Since(start)),
		)
		return resp, err
	}
}

func newStruct(m map[string]any) (*structpb.Struct, error) {
	out, err := structpb.NewStruct(m)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode response: %v", err)
	}
	return out, nil
}

// ─── Request decoding ────────────────────────────────────────────────────────

func str(req *structpb.Struct, key string) string {
	return req.GetFields()[key].GetStringValue()
}

// intField reads a whole number. JSON numbers arrive as float64, so
// fractions, NaN and values outside int32 are rejected here.
func intField(req *structpb.Struct, key string, def int) (int, error) {
	v, ok := req.GetFields()[key]
	if !ok {
		return def, nil
	}
	n, ok := v.GetKind().(*structpb.Value_NumberValue)
	if !ok {
		return 0, validation.Field(key, "must be a number")
	}
	f := n.NumberValue
	if f != math.Trunc(f) || f < math.MinInt32 || f > math.MaxInt32 {
		return 0, validation.Field(key, "must be an integer within range")
	}
	return int(f), nil
}

func pagination(req *structpb.Struct) (matching.Pagination, error) {
	page, err := intField(req, "page", 1)
	if err != nil {
		return matching.Pagination{}, err
	}
	perPage, err := intField(req, "perPage", 10)
	if err != nil {
		return matching.Pagination{}, err
	}
	return matching.Pagination{Page: page, PerPage: perPage}, nil
}

func timeField(req *structpb.Struct, key string) (time.Time, error) {
	raw := str(req, key)
	if raw == "" {
		return time.Time{}, validation.Field(key, "is required")
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, validation.Field(key, "must be an RFC3339 timestamp")
	}
	return t, nil
}

func optEnum[T any](req *structpb.Struct, key string, parse func(string) (T, error)) (*T, error) {
	raw := str(req, key)
	if raw == "" {
		return nil, nil
	}
	v, err := parse(raw)
	if err != nil {
		return nil, validation.Field(key, err.Error())
	}
	return &v, nil
}

func offerFilter(req *structpb.Struct) (matching.Filter, error) {
	var (
		f   matching.Filter
		err error
	)
	if f.JobType, err = optEnum(req, "jobType", model.ParseJobType); err != nil {
		return f, err
	}
	if f.LocationType, err = optEnum(req, "locationType", model.ParseLocationType); err != nil {
		return f, err
	}
	if f.CompanyCategory, err = optEnum(req, "companyCategory", model.ParseCompanyCategory); err != nil {
		return f, err
	}
	return f, nil
}

func statsFilter(req *structpb.Struct) (matching.StatsFilter, error) {
	var (
		f   matching.StatsFilter
		err error
	)
	if f.JobType, err = optEnum(req, "jobType", model.ParseJobType); err != nil {
		return f, err
	}
	if f.LocationType, err = optEnum(req, "locationType", model.ParseLocationType); err != nil {
		return f, err
	}
	return f, nil
}
