package controllers

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/labels"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/apimachinery/pkg/types"
	"k8s.io/client-go/tools/record"
	ctrl "sigs.k8s.io/controller-runtime"
	"sigs.k8s.io/controller-runtime/pkg/builder"
	"sigs.k8s.io/controller-runtime/pkg/client"
	"sigs.k8s.io/controller-runtime/pkg/handler"
	"sigs.k8s.io/controller-runtime/pkg/log"
	"sigs.k8s.io/controller-runtime/pkg/predicate"
	"sigs.k8s.io/controller-runtime/pkg/reconcile"

	resolvev1 "github.com/bayleafwalker/bindery-resolver/api/v1alpha1"
	"github.com/bayleafwalker/bindery-resolver/internal/config"
	"github.com/bayleafwalker/bindery-resolver/internal/manifest"
	"github.com/bayleafwalker/bindery-resolver/internal/repository"
	"github.com/bayleafwalker/bindery-resolver/internal/resolver"
	"github.com/bayleafwalker/bindery-resolver/internal/resource"
)

const controllerName = "Resolution"

// providerRetryDelay is how long a Resolution waits after a session that was
// cut short by provider errors or a timeout.
const providerRetryDelay = 30 * time.Second

// ResolutionReconciler resolves Resolutions against the ModuleManifests of
// their namespace and records the wiring in status.
//
// RBAC:
// +kubebuilder:rbac:groups=resolve.bindery.platform,resources=modulemanifests,verbs=get;list;watch
// +kubebuilder:rbac:groups=resolve.bindery.platform,resources=resolutions,verbs=get;list;watch
// +kubebuilder:rbac:groups=resolve.bindery.platform,resources=resolutions/status,verbs=get;update;patch
// +kubebuilder:rbac:groups="",resources=events,verbs=create;patch;update
type ResolutionReconciler struct {
	client.Client
	Scheme   *runtime.Scheme
	Recorder record.EventRecorder
	Config   config.Config
	// Validators check converted manifests. Nil means
	// resource.DefaultValidators.
	Validators *resource.Validators
}

func (r *ResolutionReconciler) Reconcile(ctx context.Context, req ctrl.Request) (ctrl.Result, error) {
	binderyControllerReconcileTotal.WithLabelValues(controllerName).Inc()

	logger := log.FromContext(ctx).WithValues(
		"controller", controllerName,
		"namespace", req.Namespace,
		"resolution", req.Name,
	)

	var res resolvev1.Resolution
	if err := r.Get(ctx, req.NamespacedName, &res); err != nil {
		if client.IgnoreNotFound(err) == nil {
			resolutionUnresolvedRequired.DeleteLabelValues(req.Namespace, req.Name)
			return ctrl.Result{}, nil
		}
		binderyControllerReconcileErrorTotal.WithLabelValues(controllerName).Inc()
		return ctrl.Result{}, err
	}
	logger.Info("reconciling resolution", "generation", res.Generation)

	roots, agg, kube, err := r.prepare(&res)
	if err != nil {
		msg := fmt.Sprintf("InvalidSpec: %v", err)
		if perr := r.patchStatus(ctx, &res, resolvev1.ResolutionStatus{
			Phase:   resolvev1.ResolutionPhaseError,
			Message: msg,
		}, metav1.Condition{
			Type:    ResolutionConditionResolved,
			Status:  metav1.ConditionFalse,
			Reason:  ReasonInvalidSpec,
			Message: msg,
		}); perr != nil {
			logger.Error(perr, "failed to patch resolution status")
		}
		logger.Info("invalid resolution spec; marking error", "error", err.Error())
		r.recordEventf(&res, corev1.EventTypeWarning, ReasonInvalidSpec, "%s", msg)
		return ctrl.Result{}, nil
	}

	sessionCtx := log.IntoContext(ctx, logger)
	if d := r.Config.Timeout.Duration; d > 0 {
		var cancel context.CancelFunc
		sessionCtx, cancel = context.WithTimeout(sessionCtx, d)
		defer cancel()
	}
	start := time.Now()
	result, err := resolver.NewDefault(r.resolverOptions(&res, agg)).Resolve(sessionCtx, resolver.Input{
		Requirements: roots,
		Index:        agg,
		Callback:     resolver.DefaultCallback{},
	})
	if err != nil {
		binderyControllerReconcileErrorTotal.WithLabelValues(controllerName).Inc()
		return ctrl.Result{}, err
	}
	resolutionDuration.Observe(time.Since(start).Seconds())
	resolutionOutcomeTotal.WithLabelValues(result.Outcome.String()).Inc()
	resolutionBacktracksTotal.Add(float64(result.Stats.Backtracks))
	resolutionCallbackInvocationsTotal.Add(float64(result.Stats.CallbackInvocations))

	invalid := kube.Invalid()
	names := make([]string, 0, len(invalid))
	for name := range invalid {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		r.recordEventf(&res, corev1.EventTypeWarning, "InvalidModuleManifest", "ModuleManifest %q skipped: %v", name, invalid[name])
	}

	status := manifest.Status(result)
	resolutionUnresolvedRequired.WithLabelValues(req.Namespace, req.Name).Set(float64(len(status.Unresolved)))

	logger.Info(
		"resolution finished",
		"session", result.SessionID,
		"outcome", result.Outcome.String(),
		"wires", len(status.Wires),
		"unresolvedCount", len(status.Unresolved),
		"unresolvedOptionalCount", len(status.UnresolvedOptional),
		"backtracks", result.Stats.Backtracks,
	)

	prevPhase := res.Status.Phase
	now := metav1.Now()
	status.LastResolvedTime = &now
	var (
		cond    metav1.Condition
		requeue time.Duration
	)
	switch result.Outcome {
	case resolver.Resolved:
		if len(status.UnresolvedOptional) > 0 {
			status.Message = fmt.Sprintf("resolved (%d optional unresolved)", len(status.UnresolvedOptional))
		}
		cond = metav1.Condition{Type: ResolutionConditionResolved, Status: metav1.ConditionTrue, Reason: ReasonResolved, Message: status.Message}
	case resolver.Cancelled:
		cond = metav1.Condition{Type: ResolutionConditionResolved, Status: metav1.ConditionFalse, Reason: ReasonCancelled, Message: "resolution timed out"}
		status.Message = cond.Message
		requeue = providerRetryDelay
	default:
		reason := ReasonUnresolved
		if result.Err != nil && result.Err.Cause != nil {
			reason = ReasonProviderError
		}
		if len(result.Diagnostics.ProviderErrors) > 0 {
			requeue = providerRetryDelay
		}
		msg := status.Message
		if reason == ReasonUnresolved && len(status.Unresolved) > 0 {
			msg = "Unresolved: " + summarizeUnresolved(status.Unresolved)
		}
		cond = metav1.Condition{Type: ResolutionConditionResolved, Status: metav1.ConditionFalse, Reason: reason, Message: msg}
	}

	if perr := r.patchStatus(ctx, &res, status, cond); perr != nil {
		logger.Error(perr, "failed to patch resolution status")
		binderyControllerReconcileErrorTotal.WithLabelValues(controllerName).Inc()
		return ctrl.Result{}, perr
	}

	if prevPhase != status.Phase {
		// Avoid spamming; emit only on transitions.
		if status.Phase == resolvev1.ResolutionPhaseResolved {
			r.recordEventf(&res, corev1.EventTypeNormal, ReasonResolved, "%s", status.Message)
		} else {
			r.recordEventf(&res, corev1.EventTypeWarning, cond.Reason, "%s", cond.Message)
		}
	}
	return ctrl.Result{RequeueAfter: requeue}, nil
}

// prepare turns the Resolution spec fields into root requirements and an index over the
// namespace's ModuleManifests.
func (r *ResolutionReconciler) prepare(res *resolvev1.Resolution) ([]*resource.Requirement, *repository.Aggregate, *repository.Kube, error) {
	if len(res.Spec.Requirements) == 0 {
		return nil, nil, nil, errors.New("spec.requirements must not be empty")
	}
	roots, err := manifest.Requirements(res.Spec.Requirements)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("spec.requirements: %w", err)
	}
	blacklist, err := manifest.Requirements(identityDefault(res.Spec.Blacklist))
	if err != nil {
		return nil, nil, nil, fmt.Errorf("spec.blacklist: %w", err)
	}
	selector := labels.Everything()
	if res.Spec.ModuleSelector != nil {
		selector, err = metav1.LabelSelectorAsSelector(res.Spec.ModuleSelector)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("spec.moduleSelector: %w", err)
		}
	}

	validators := r.Validators
	if validators == nil {
		validators = resource.DefaultValidators()
	}
	kube := &repository.Kube{
		Client:     r.Client,
		Namespace:  res.Namespace,
		Selector:   selector,
		Validators: validators,
	}
	opts, err := r.Config.Aggregate(kube)
	if err != nil {
		return nil, nil, nil, err
	}
	opts.Blacklist = append(opts.Blacklist, blacklist...)
	opts.Effective = append(opts.Effective, res.Spec.Effective...)
	return roots, repository.NewAggregate(opts), kube, nil
}

func (r *ResolutionReconciler) resolverOptions(res *resolvev1.Resolution, agg *repository.Aggregate) resolver.Options {
	opts := r.Config.Resolver(agg)
	opts.Effective = append(opts.Effective, res.Spec.Effective...)
	return opts
}

func identityDefault(specs []resolvev1.RequirementSpec) []resolvev1.RequirementSpec {
	out := make([]resolvev1.RequirementSpec, len(specs))
	for i, s := range specs {
		if s.Namespace == "" {
			s.Namespace = resource.NamespaceIdentity
		}
		out[i] = s
	}
	return out
}

func (r *ResolutionReconciler) recordEventf(obj client.Object, eventType, reason, messageFmt string, args ...any) {
	if r.Recorder == nil || obj == nil {
		return
	}
	r.Recorder.Eventf(obj, eventType, reason, messageFmt, args...)
}

func (r *ResolutionReconciler) patchStatus(ctx context.Context, res *resolvev1.Resolution, status resolvev1.ResolutionStatus, cond metav1.Condition) error {
	before := res.DeepCopy()
	status.Conditions = res.Status.Conditions
	status.ObservedGeneration = res.Generation
	res.Status = status
	setResolutionCondition(res, cond)
	return r.Status().Patch(ctx, res, client.MergeFrom(before))
}

func (r *ResolutionReconciler) SetupWithManager(mgr ctrl.Manager) error {
	return ctrl.NewControllerManagedBy(mgr).
		For(&resolvev1.Resolution{}, builder.WithPredicates(predicate.GenerationChangedPredicate{})).
		Watches(&resolvev1.ModuleManifest{}, enqueueResolutionsForModule(mgr.GetClient())).
		Complete(r)
}

// enqueueResolutionsForModule enqueues every Resolution in the namespace of a
// changed ModuleManifest. Selectors are evaluated by the reconcile itself.
func enqueueResolutionsForModule(c client.Client) handler.EventHandler {
	return handler.EnqueueRequestsFromMapFunc(func(ctx context.Context, obj client.Object) []reconcile.Request {
		mm, ok := obj.(*resolvev1.ModuleManifest)
		if !ok {
			return nil
		}
		var list resolvev1.ResolutionList
		if err := c.List(ctx, &list, client.InNamespace(mm.Namespace)); err != nil {
			log.FromContext(ctx).Error(err, "failed to list resolutions", "moduleManifest", mm.Name)
			return nil
		}
		out := make([]reconcile.Request, 0, len(list.Items))
		for i := range list.Items {
			res := &list.Items[i]
			out = append(out, reconcile.Request{NamespacedName: types.NamespacedName{Namespace: res.Namespace, Name: res.Name}})
		}
		return out
	})
}
