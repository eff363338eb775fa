package browser

import (
	"net/url"
	"strings"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
)

// configToProto maps human-readable config strings to Rod protocol resource types.
var configToProto = map[string]proto.NetworkResourceType{
	"Image":      proto.NetworkResourceTypeImage,
	"Stylesheet": proto.NetworkResourceTypeStylesheet,
	"Font":       proto.NetworkResourceTypeFont,
	"Media":      proto.NetworkResourceTypeMedia,
}

// domainSet is a host deny-list with parent domain matching.
type domainSet map[string]struct{}

func newDomainSet(domains []string) domainSet {
	set := make(domainSet, len(domains))
	for _, d := range domains {
		d = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(d)), ".")
		if d != "" {
			set[d] = struct{}{}
		}
	}
	return set
}

// match checks host and each parent domain
// ("pagead2.googlesyndication.com" → "googlesyndication.com").
func (s domainSet) match(host string) bool {
	host = strings.TrimSuffix(strings.ToLower(host), ".")
	for host != "" {
		if _, ok := s[host]; ok {
			return true
		}
		idx := strings.IndexByte(host, '.')
		if idx < 0 {
			break
		}
		host = host[idx+1:]
	}
	return false
}

// requestFilter is the pure decision half of the interception rule.
type requestFilter struct {
	blockedTypes map[proto.NetworkResourceType]struct{}
	denied       domainSet
}

func newRequestFilter(rules *InterceptRules) *requestFilter {
	f := &requestFilter{
		blockedTypes: make(map[proto.NetworkResourceType]struct{}, len(rules.BlockedResourceTypes)),
		denied:       newDomainSet(rules.DenyDomains),
	}
	for _, name := range rules.BlockedResourceTypes {
		if rt, ok := configToProto[name]; ok {
			f.blockedTypes[rt] = struct{}{}
		}
	}
	return f
}

// abort reports whether a request must be failed instead of continued.
func (f *requestFilter) abort(rawURL string, rt proto.NetworkResourceType) bool {
	if _, blocked := f.blockedTypes[rt]; blocked {
		return true
	}
	if len(f.denied) == 0 {
		return false
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	return f.denied.match(u.Hostname())
}

// setupHijack installs a request interceptor on the page. Everything not
// matched by the rules is continued untouched, since SPA rendering can depend
// on arbitrary first-party resources.
//
// Returns the running HijackRouter so the caller can Stop it, or nil if there
// is nothing to block.
func setupHijack(page *rod.Page, rules *InterceptRules) *rod.HijackRouter {
	if rules.Empty() {
		return nil
	}
	filter := newRequestFilter(rules)

	router := page.HijackRequests()

	// Pattern "*" + empty resourceType = intercept ALL requests, then
	// decide per-request whether to block or continue.
	_ = router.Add("*", "", func(ctx *rod.Hijack) {
		if filter.abort(ctx.Request.URL().String(), ctx.Request.Type()) {
			ctx.Response.Fail(proto.NetworkErrorReasonBlockedByClient)
			return
		}
		ctx.ContinueRequest(&proto.FetchContinueRequest{})
	})

	// router.Run() blocks, so it must live in its own goroutine.
	// It will exit when router.Stop() is called.
	go router.Run()

	return router
}
