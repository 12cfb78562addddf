// Command libcrabhttp builds the C shared library:
//
//	go build -buildmode=c-shared -o libcrabhttp.so ./cmd/libcrabhttp
//
// Handles are uint64_t values where 0 is null. Text arguments are
// NUL-terminated UTF-8 strings. Data producing calls return a buffer handle
// read with buffer_len and buffer_content and freed with buffer_destroy.
// Failures are reported per calling thread through take_last_error.
package main

/*
#include <stdbool.h>
#include <stddef.h>
#include <stdint.h>
#include <stdlib.h>

typedef struct {
	const char *key;
	const char *value;
} crab_pair;
*/
import "C"

import (
	"unsafe"

	"github.com/wippyai/crabhttp/ffi"
)

var boundary = ffi.New(
	ffi.WithChannel(errorChannel()),
	ffi.WithAllocator(cAllocator{}),
)

func main() {}

// cAllocator backs buffers with malloc so that pointers handed to C stay
// valid after the call returns and are never moved by the Go runtime. A
// failed malloc yields nil, which the boundary reports as OutOfMemory.
type cAllocator struct{}

func (cAllocator) Alloc(n int) []byte {
	p := C.malloc(C.size_t(n))
	if p == nil {
		return nil
	}
	return unsafe.Slice((*byte)(p), n)
}

func (cAllocator) Free(b []byte) {
	if cap(b) == 0 {
		return
	}
	C.free(unsafe.Pointer(unsafe.SliceData(b)))
}

func text(p *C.char) *string {
	if p == nil {
		return nil
	}
	s := C.GoString(p)
	return &s
}

func optU64(p *C.uint64_t) *uint64 {
	if p == nil {
		return nil
	}
	v := uint64(*p)
	return &v
}

func optU32(p *C.uint32_t) *uint32 {
	if p == nil {
		return nil
	}
	v := uint32(*p)
	return &v
}

func pairs(p *C.crab_pair, n C.size_t) []ffi.Pair {
	if p == nil || n == 0 {
		return nil
	}
	src := unsafe.Slice(p, int(n))
	out := make([]ffi.Pair, len(src))
	for i, kv := range src {
		out[i] = ffi.Pair{Key: text(kv.key), Value: text(kv.value)}
	}
	return out
}

func texts(p **C.char, n C.size_t) []*string {
	if p == nil || n == 0 {
		return nil
	}
	src := unsafe.Slice(p, int(n))
	out := make([]*string, len(src))
	for i, s := range src {
		out[i] = text(s)
	}
	return out
}

func bytesArg(p *C.uint8_t, n C.size_t) []byte {
	if p == nil || n == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(p)), int(n))
}

func h(v C.uint64_t) ffi.Handle { return ffi.Handle(v) }

func ret(v ffi.Handle) C.uint64_t { return C.uint64_t(v) }

//export initialize_logging
func initialize_logging(path *C.char) C.bool {
	p := ""
	if s := text(path); s != nil {
		p = *s
	}
	return C.bool(ffi.InitializeLogging(p) == nil)
}

// Client builder.

//export new_client_builder
func new_client_builder() C.uint64_t { return ret(boundary.NewClientBuilder()) }

//export client_builder_destroy
func client_builder_destroy(b C.uint64_t) { boundary.ClientBuilderDestroy(h(b)) }

//export client_builder_default_headers
func client_builder_default_headers(b, headers C.uint64_t) C.uint64_t {
	return ret(boundary.ClientBuilderDefaultHeaders(h(b), h(headers)))
}

//export client_builder_user_agent
func client_builder_user_agent(b C.uint64_t, value *C.char) C.uint64_t {
	return ret(boundary.ClientBuilderUserAgent(h(b), text(value)))
}

//export client_builder_redirect
func client_builder_redirect(b C.uint64_t, maxHops C.size_t) C.uint64_t {
	return ret(boundary.ClientBuilderRedirect(h(b), uint64(maxHops)))
}

//export client_builder_referer
func client_builder_referer(b C.uint64_t, enable C.bool) C.uint64_t {
	return ret(boundary.ClientBuilderReferer(h(b), bool(enable)))
}

//export client_builder_proxy
func client_builder_proxy(b, proxy C.uint64_t) C.uint64_t {
	return ret(boundary.ClientBuilderProxy(h(b), h(proxy)))
}

//export client_builder_no_proxy
func client_builder_no_proxy(b C.uint64_t) C.uint64_t {
	return ret(boundary.ClientBuilderNoProxy(h(b)))
}

//export client_builder_timeout
func client_builder_timeout(b C.uint64_t, ms *C.uint64_t) C.uint64_t {
	return ret(boundary.ClientBuilderTimeout(h(b), optU64(ms)))
}

//export client_builder_connect_timeout
func client_builder_connect_timeout(b C.uint64_t, ms *C.uint64_t) C.uint64_t {
	return ret(boundary.ClientBuilderConnectTimeout(h(b), optU64(ms)))
}

//export client_builder_pool_idle_timeout
func client_builder_pool_idle_timeout(b C.uint64_t, ms *C.uint64_t) C.uint64_t {
	return ret(boundary.ClientBuilderPoolIdleTimeout(h(b), optU64(ms)))
}

//export client_builder_pool_max_idle_per_host
func client_builder_pool_max_idle_per_host(b C.uint64_t, n C.size_t) C.uint64_t {
	return ret(boundary.ClientBuilderPoolMaxIdlePerHost(h(b), uint64(n)))
}

//export client_builder_http1_title_case_headers
func client_builder_http1_title_case_headers(b C.uint64_t) C.uint64_t {
	return ret(boundary.ClientBuilderHTTP1TitleCaseHeaders(h(b)))
}

//export client_builder_http1_only
func client_builder_http1_only(b C.uint64_t) C.uint64_t {
	return ret(boundary.ClientBuilderHTTP1Only(h(b)))
}

//export client_builder_http09_responses
func client_builder_http09_responses(b C.uint64_t) C.uint64_t {
	return ret(boundary.ClientBuilderHTTP09Responses(h(b)))
}

//export client_builder_http2_prior_knowledge
func client_builder_http2_prior_knowledge(b C.uint64_t) C.uint64_t {
	return ret(boundary.ClientBuilderHTTP2PriorKnowledge(h(b)))
}

//export client_builder_http2_initial_stream_window_size
func client_builder_http2_initial_stream_window_size(b C.uint64_t, size *C.uint32_t) C.uint64_t {
	return ret(boundary.ClientBuilderHTTP2InitialStreamWindowSize(h(b), optU32(size)))
}

//export client_builder_http2_initial_connection_window_size
func client_builder_http2_initial_connection_window_size(b C.uint64_t, size *C.uint32_t) C.uint64_t {
	return ret(boundary.ClientBuilderHTTP2InitialConnectionWindowSize(h(b), optU32(size)))
}

//export client_builder_http2_max_frame_size
func client_builder_http2_max_frame_size(b C.uint64_t, size *C.uint32_t) C.uint64_t {
	return ret(boundary.ClientBuilderHTTP2MaxFrameSize(h(b), optU32(size)))
}

//export client_builder_tcp_nodelay
func client_builder_tcp_nodelay(b C.uint64_t, enable C.bool) C.uint64_t {
	return ret(boundary.ClientBuilderTCPNodelay(h(b), bool(enable)))
}

//export client_builder_local_address
func client_builder_local_address(b C.uint64_t, addr *C.char) C.uint64_t {
	return ret(boundary.ClientBuilderLocalAddress(h(b), text(addr)))
}

//export client_builder_tcp_keepalive
func client_builder_tcp_keepalive(b C.uint64_t, ms *C.uint64_t) C.uint64_t {
	return ret(boundary.ClientBuilderTCPKeepalive(h(b), optU64(ms)))
}

//export client_builder_add_root_certificate
func client_builder_add_root_certificate(b C.uint64_t, path *C.char) C.uint64_t {
	return ret(boundary.ClientBuilderAddRootCertificate(h(b), text(path)))
}

//export client_builder_tls_built_in_root_certs
func client_builder_tls_built_in_root_certs(b C.uint64_t, enable C.bool) C.uint64_t {
	return ret(boundary.ClientBuilderTLSBuiltInRootCerts(h(b), bool(enable)))
}

//export client_builder_danger_accept_invalid_certs
func client_builder_danger_accept_invalid_certs(b C.uint64_t, enable C.bool) C.uint64_t {
	return ret(boundary.ClientBuilderDangerAcceptInvalidCerts(h(b), bool(enable)))
}

//export client_builder_min_tls_version
func client_builder_min_tls_version(b C.uint64_t, version *C.char) C.uint64_t {
	return ret(boundary.ClientBuilderMinTLSVersion(h(b), text(version)))
}

//export client_builder_max_tls_version
func client_builder_max_tls_version(b C.uint64_t, version *C.char) C.uint64_t {
	return ret(boundary.ClientBuilderMaxTLSVersion(h(b), text(version)))
}

//export client_builder_https_only
func client_builder_https_only(b C.uint64_t, enable C.bool) C.uint64_t {
	return ret(boundary.ClientBuilderHTTPSOnly(h(b), bool(enable)))
}

//export client_builder_resolve
func client_builder_resolve(b C.uint64_t, domain, addr *C.char) C.uint64_t {
	return ret(boundary.ClientBuilderResolve(h(b), text(domain), text(addr)))
}

//export client_builder_resolve_to_addrs
func client_builder_resolve_to_addrs(b C.uint64_t, domain *C.char, addrs **C.char, n C.size_t) C.uint64_t {
	return ret(boundary.ClientBuilderResolveToAddrs(h(b), text(domain), texts(addrs, n)))
}

//export client_builder_rate_limit
func client_builder_rate_limit(b C.uint64_t, perSecond C.double, burst C.uint32_t) C.uint64_t {
	return ret(boundary.ClientBuilderRateLimit(h(b), float64(perSecond), uint32(burst)))
}

//export client_builder_build
func client_builder_build(b C.uint64_t) C.uint64_t {
	return ret(boundary.ClientBuilderBuild(h(b)))
}

// Client.

//export client_destroy
func client_destroy(c C.uint64_t) { boundary.ClientDestroy(h(c)) }

//export client_get
func client_get(c C.uint64_t, url *C.char) C.uint64_t {
	return ret(boundary.ClientGet(h(c), text(url)))
}

//export client_post
func client_post(c C.uint64_t, url *C.char) C.uint64_t {
	return ret(boundary.ClientPost(h(c), text(url)))
}

//export client_put
func client_put(c C.uint64_t, url *C.char) C.uint64_t {
	return ret(boundary.ClientPut(h(c), text(url)))
}

//export client_patch
func client_patch(c C.uint64_t, url *C.char) C.uint64_t {
	return ret(boundary.ClientPatch(h(c), text(url)))
}

//export client_delete
func client_delete(c C.uint64_t, url *C.char) C.uint64_t {
	return ret(boundary.ClientDelete(h(c), text(url)))
}

//export client_head
func client_head(c C.uint64_t, url *C.char) C.uint64_t {
	return ret(boundary.ClientHead(h(c), text(url)))
}

//export client_request
func client_request(c C.uint64_t, method, url *C.char) C.uint64_t {
	return ret(boundary.ClientRequest(h(c), text(method), text(url)))
}

//export client_execute
func client_execute(c, request C.uint64_t) C.uint64_t {
	return ret(boundary.ClientExecute(h(c), h(request)))
}

// Request builder.

//export request_builder_destroy
func request_builder_destroy(rb C.uint64_t) { boundary.RequestBuilderDestroy(h(rb)) }

//export request_builder_header
func request_builder_header(rb C.uint64_t, key, value *C.char) C.uint64_t {
	return ret(boundary.RequestBuilderHeader(h(rb), text(key), text(value)))
}

//export request_builder_headers
func request_builder_headers(rb, headers C.uint64_t) C.uint64_t {
	return ret(boundary.RequestBuilderHeaders(h(rb), h(headers)))
}

//export request_builder_basic_auth
func request_builder_basic_auth(rb C.uint64_t, user, password *C.char) C.uint64_t {
	return ret(boundary.RequestBuilderBasicAuth(h(rb), text(user), text(password)))
}

//export request_builder_bearer_auth
func request_builder_bearer_auth(rb C.uint64_t, token *C.char) C.uint64_t {
	return ret(boundary.RequestBuilderBearerAuth(h(rb), text(token)))
}

//export request_builder_body_bytes
func request_builder_body_bytes(rb C.uint64_t, data *C.uint8_t, n C.size_t) C.uint64_t {
	return ret(boundary.RequestBuilderBodyBytes(h(rb), bytesArg(data, n)))
}

//export request_builder_body_string
func request_builder_body_string(rb C.uint64_t, body *C.char) C.uint64_t {
	return ret(boundary.RequestBuilderBodyString(h(rb), text(body)))
}

//export request_builder_body_file
func request_builder_body_file(rb C.uint64_t, path *C.char) C.uint64_t {
	return ret(boundary.RequestBuilderBodyFile(h(rb), text(path)))
}

//export request_builder_body_file_with_name
func request_builder_body_file_with_name(rb C.uint64_t, name, path *C.char) C.uint64_t {
	return ret(boundary.RequestBuilderBodyFileWithName(h(rb), text(name), text(path)))
}

//export request_builder_timeout
func request_builder_timeout(rb C.uint64_t, ms C.uint64_t) C.uint64_t {
	return ret(boundary.RequestBuilderTimeout(h(rb), uint64(ms)))
}

//export request_builder_query
func request_builder_query(rb C.uint64_t, p *C.crab_pair, n C.size_t) C.uint64_t {
	return ret(boundary.RequestBuilderQuery(h(rb), pairs(p, n)))
}

//export request_builder_version
func request_builder_version(rb C.uint64_t, version *C.char) C.uint64_t {
	return ret(boundary.RequestBuilderVersion(h(rb), text(version)))
}

//export request_builder_form
func request_builder_form(rb C.uint64_t, p *C.crab_pair, n C.size_t) C.uint64_t {
	return ret(boundary.RequestBuilderForm(h(rb), pairs(p, n)))
}

//export request_builder_json
func request_builder_json(rb C.uint64_t, p *C.crab_pair, n C.size_t) C.uint64_t {
	return ret(boundary.RequestBuilderJSON(h(rb), pairs(p, n)))
}

//export request_builder_build
func request_builder_build(rb C.uint64_t) C.uint64_t {
	return ret(boundary.RequestBuilderBuild(h(rb)))
}

//export request_builder_send
func request_builder_send(rb C.uint64_t) C.uint64_t {
	return ret(boundary.RequestBuilderSend(h(rb)))
}

//export request_builder_try_clone
func request_builder_try_clone(rb C.uint64_t) C.uint64_t {
	return ret(boundary.RequestBuilderTryClone(h(rb)))
}

// Request.

//export request_destroy
func request_destroy(r C.uint64_t) { boundary.RequestDestroy(h(r)) }

//export request_method
func request_method(r C.uint64_t) C.uint64_t { return ret(boundary.RequestMethod(h(r))) }

//export request_url
func request_url(r C.uint64_t) C.uint64_t { return ret(boundary.RequestURL(h(r))) }

//export request_try_clone
func request_try_clone(r C.uint64_t) C.uint64_t { return ret(boundary.RequestTryClone(h(r))) }

// Response.

//export response_destroy
func response_destroy(r C.uint64_t) { boundary.ResponseDestroy(h(r)) }

//export response_status
func response_status(r C.uint64_t) C.int32_t { return C.int32_t(boundary.ResponseStatus(h(r))) }

//export response_headers
func response_headers(r C.uint64_t) C.uint64_t { return ret(boundary.ResponseHeaders(h(r))) }

//export response_version
func response_version(r C.uint64_t) C.uint64_t { return ret(boundary.ResponseVersion(h(r))) }

//export response_url
func response_url(r C.uint64_t) C.uint64_t { return ret(boundary.ResponseURL(h(r))) }

//export response_remote_addr
func response_remote_addr(r C.uint64_t) C.uint64_t { return ret(boundary.ResponseRemoteAddr(h(r))) }

//export response_content_length
func response_content_length(r C.uint64_t) C.int64_t {
	return C.int64_t(boundary.ResponseContentLength(h(r)))
}

//export response_error_for_status
func response_error_for_status(r C.uint64_t) C.bool {
	return C.bool(boundary.ResponseErrorForStatus(h(r)))
}

//export response_text
func response_text(r C.uint64_t) C.uint64_t { return ret(boundary.ResponseText(h(r))) }

//export response_text_with_charset
func response_text_with_charset(r C.uint64_t, charset *C.char) C.uint64_t {
	return ret(boundary.ResponseTextWithCharset(h(r), text(charset)))
}

//export response_bytes
func response_bytes(r C.uint64_t) C.uint64_t { return ret(boundary.ResponseBytes(h(r))) }

//export response_copy_to
func response_copy_to(r C.uint64_t) C.uint64_t { return ret(boundary.ResponseCopyTo(h(r))) }

//export response_read
func response_read(r C.uint64_t, dst *C.uint8_t, n C.size_t) C.int64_t {
	return C.int64_t(boundary.ResponseRead(h(r), bytesArg(dst, n)))
}

// Header map.

//export new_header_map
func new_header_map() C.uint64_t { return ret(boundary.NewHeaderMap()) }

//export header_map_destroy
func header_map_destroy(m C.uint64_t) { boundary.HeaderMapDestroy(h(m)) }

//export header_map_insert
func header_map_insert(m C.uint64_t, key, value *C.char) C.bool {
	return C.bool(boundary.HeaderMapInsert(h(m), text(key), text(value)))
}

//export header_map_append
func header_map_append(m C.uint64_t, key, value *C.char) C.bool {
	return C.bool(boundary.HeaderMapAppend(h(m), text(key), text(value)))
}

//export header_map_remove
func header_map_remove(m C.uint64_t, key *C.char) C.bool {
	return C.bool(boundary.HeaderMapRemove(h(m), text(key)))
}

//export header_map_get
func header_map_get(m C.uint64_t, key *C.char) C.uint64_t {
	return ret(boundary.HeaderMapGet(h(m), text(key)))
}

//export header_map_get_all
func header_map_get_all(m C.uint64_t, key *C.char) C.uint64_t {
	return ret(boundary.HeaderMapGetAll(h(m), text(key)))
}

//export header_map_values_len
func header_map_values_len(m C.uint64_t, key *C.char) C.int32_t {
	return C.int32_t(boundary.HeaderMapValuesLen(h(m), text(key)))
}

//export header_map_get_at
func header_map_get_at(m C.uint64_t, key *C.char, i C.uint32_t) C.uint64_t {
	return ret(boundary.HeaderMapGetAt(h(m), text(key), uint32(i)))
}

//export header_map_contains_key
func header_map_contains_key(m C.uint64_t, key *C.char) C.bool {
	return C.bool(boundary.HeaderMapContainsKey(h(m), text(key)))
}

//export header_map_len
func header_map_len(m C.uint64_t) C.int32_t { return C.int32_t(boundary.HeaderMapLen(h(m))) }

//export header_map_keys_len
func header_map_keys_len(m C.uint64_t) C.int32_t { return C.int32_t(boundary.HeaderMapKeysLen(h(m))) }

//export header_map_capacity
func header_map_capacity(m C.uint64_t) C.int32_t { return C.int32_t(boundary.HeaderMapCapacity(h(m))) }

//export header_map_keys
func header_map_keys(m C.uint64_t) C.uint64_t { return ret(boundary.HeaderMapKeys(h(m))) }

//export header_map_values
func header_map_values(m C.uint64_t) C.uint64_t { return ret(boundary.HeaderMapValues(h(m))) }

//export header_map_clear
func header_map_clear(m C.uint64_t) C.bool { return C.bool(boundary.HeaderMapClear(h(m))) }

//export header_map_reserve
func header_map_reserve(m C.uint64_t, n C.uint32_t) C.bool {
	return C.bool(boundary.HeaderMapReserve(h(m), uint32(n)))
}

// Proxy.

//export proxy_http
func proxy_http(url *C.char) C.uint64_t { return ret(boundary.ProxyHTTP(text(url))) }

//export proxy_https
func proxy_https(url *C.char) C.uint64_t { return ret(boundary.ProxyHTTPS(text(url))) }

//export proxy_all
func proxy_all(url *C.char) C.uint64_t { return ret(boundary.ProxyAll(text(url))) }

//export proxy_destroy
func proxy_destroy(p C.uint64_t) { boundary.ProxyDestroy(h(p)) }

// Buffer.

//export buffer_len
func buffer_len(b C.uint64_t) C.size_t { return C.size_t(boundary.BufferLen(h(b))) }

//export buffer_content
func buffer_content(b C.uint64_t) *C.uint8_t {
	return (*C.uint8_t)(boundary.BufferContent(h(b)))
}

//export buffer_is_text
func buffer_is_text(b C.uint64_t) C.bool { return C.bool(boundary.BufferIsText(h(b))) }

//export buffer_destroy
func buffer_destroy(b C.uint64_t) { boundary.BufferDestroy(h(b)) }

// Errors.

//export take_last_error
func take_last_error() C.uint64_t { return ret(boundary.TakeLastError()) }

//export error_kind
func error_kind(e C.uint64_t) C.int32_t { return C.int32_t(boundary.ErrorKind(h(e))) }

//export error_code
func error_code(e C.uint64_t) C.int32_t { return C.int32_t(boundary.ErrorCode(h(e))) }

//export error_message_len
func error_message_len(e C.uint64_t) C.size_t { return C.size_t(boundary.ErrorMessageLen(h(e))) }

//export error_message
func error_message(e C.uint64_t) *C.char { return (*C.char)(boundary.ErrorMessage(h(e))) }

//export error_clear
func error_clear(e C.uint64_t) { boundary.ErrorClear(h(e)) }

//export error_destroy
func error_destroy(e C.uint64_t) { boundary.ErrorDestroy(h(e)) }
