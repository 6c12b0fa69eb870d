package recorder

// captureScript is injected into every document of a recording session.
// It queues actions on window.uirRecorder; the session drains the queue
// by polling drain(). The locator strategies mirror locator.GenerateXPath
// and locator.GenerateCSS so live and offline locators agree.
const captureScript = `
(function() {
	if (window.uirRecorder) return;

	const STABLE_ATTRS = ['data-testid', 'data-cy', 'data-test', 'name', 'role',
		'aria-label', 'alt', 'title', 'placeholder', 'type'];
	const CSS_ATTRS = ['data-testid', 'data-cy', 'data-test', 'name', 'role'];
	const CSS_IDENT = /^-?[A-Za-z_][A-Za-z0-9_-]*$/;

	function quote(v) {
		if (v.indexOf('"') < 0) return '"' + v + '"';
		if (v.indexOf("'") < 0) return "'" + v + "'";
		return null;
	}

	function count(xp) {
		try {
			return document.evaluate('count(' + xp + ')', document, null,
				XPathResult.NUMBER_TYPE, null).numberValue;
		} catch (e) {
			return 0;
		}
	}

	function selects(xp, el) {
		if (count(xp) !== 1) return false;
		try {
			return document.evaluate(xp, document, null,
				XPathResult.FIRST_ORDERED_NODE_TYPE, null).singleNodeValue === el;
		} catch (e) {
			return false;
		}
	}

	function siblingIndex(el) {
		let i = 1;
		for (let s = el.previousElementSibling; s; s = s.previousElementSibling) {
			if (s.nodeName === el.nodeName) i++;
		}
		return i;
	}

	function path(el, stop) {
		const parts = [];
		for (let n = el; n && n !== stop && n.nodeType === 1; n = n.parentElement) {
			parts.unshift(n.nodeName.toLowerCase() + '[' + siblingIndex(n) + ']');
		}
		return parts.join('/');
	}

	function xpathFor(el) {
		const tag = el.nodeName.toLowerCase();
		const ok = (xp, review) => ({ xpath: xp, validated: true, needsReview: !!review });

		if (el.id) {
			const q = quote(el.id);
			if (q) {
				const xp = '//*[@id=' + q + ']';
				if (selects(xp, el)) return ok(xp);
				const lq = quote(el.id.toLowerCase());
				const ci = "//*[translate(@id,'ABCDEFGHIJKLMNOPQRSTUVWXYZ','abcdefghijklmnopqrstuvwxyz')=" + lq + ']';
				if (lq && selects(ci, el)) return ok(ci, true);
			}
		}

		for (const name of STABLE_ATTRS) {
			const v = el.getAttribute(name);
			const q = v ? quote(v) : null;
			if (q) {
				const xp = '//' + tag + '[@' + name + '=' + q + ']';
				if (selects(xp, el)) return ok(xp);
			}
		}

		for (const a of Array.from(el.attributes)) {
			if (!a.name.startsWith('data-') || STABLE_ATTRS.includes(a.name)) continue;
			const q = a.value ? quote(a.value) : null;
			if (q) {
				const xp = '//' + tag + '[@' + a.name + '=' + q + ']';
				if (selects(xp, el)) return ok(xp);
			}
		}

		const preds = [];
		for (const a of Array.from(el.attributes)) {
			if (a.name === 'id' || a.name === 'style' || !a.value) continue;
			if (!STABLE_ATTRS.includes(a.name) && !a.name.startsWith('data-') && a.name !== 'class' && a.name !== 'href') continue;
			const q = quote(a.value);
			if (q) preds.push('@' + a.name + '=' + q);
		}
		for (let n = 2; n <= preds.length; n++) {
			const xp = '//' + tag + '[' + preds.slice(0, n).join(' and ') + ']';
			if (selects(xp, el)) return ok(xp);
		}

		const text = (el.textContent || '').replace(/\s+/g, ' ').trim();
		if (text && text.length <= 100) {
			const q = quote(text);
			if (q) {
				const xp = '//' + tag + '[normalize-space(.)=' + q + ']';
				if (selects(xp, el)) return ok(xp);
				if (el.children.length > 0) {
					const cxp = '//' + tag + '[contains(normalize-space(.),' + q + ')]';
					if (selects(cxp, el)) return ok(cxp, true);
				}
			}
		}

		for (let anc = el.parentElement; anc; anc = anc.parentElement) {
			if (!anc.id) continue;
			const q = quote(anc.id);
			if (!q) continue;
			const xp = '//*[@id=' + q + ']/' + path(el, anc);
			if (selects(xp, el)) return ok(xp);
			break;
		}

		const abs = '/' + path(el, null);
		if (selects(abs, el)) return ok(abs, true);

		return { xpath: 'N/A', validated: false, needsReview: false };
	}

	function cssFor(el) {
		const tag = el.nodeName.toLowerCase();
		const unique = (sel) => {
			try { return document.querySelectorAll(sel).length === 1; } catch (e) { return false; }
		};

		if (el.id && CSS_IDENT.test(el.id) && unique('#' + el.id)) return '#' + el.id;

		for (const name of CSS_ATTRS) {
			const v = el.getAttribute(name);
			if (!v || /["\\]/.test(v)) continue;
			const sel = tag + '[' + name + '="' + v + '"]';
			if (unique(sel)) return sel;
		}

		const classes = Array.from(el.classList).filter((c) => CSS_IDENT.test(c));
		if (classes.length) {
			const sel = '.' + classes.join('.');
			if (unique(sel)) return sel;
			if (unique(tag + sel)) return tag + sel;
		}
		return 'N/A';
	}

	function label(el) {
		let s = el.nodeName.toLowerCase();
		if (el.id) s += '#' + el.id;
		for (const c of Array.from(el.classList)) {
			if (CSS_IDENT.test(c)) s += '.' + c;
		}
		return s;
	}

	window.uirRecorder = {
		queue: [],

		record: function(type, el, value) {
			const loc = el ? xpathFor(el) : { xpath: 'N/A', validated: false, needsReview: false };
			this.queue.push({
				type: type,
				target: el ? label(el) : '',
				value: value || '',
				url: window.location.href,
				xpath: loc.xpath,
				cssSelector: el ? cssFor(el) : 'N/A',
				xpathValidated: loc.validated,
				xpathNeedsReview: loc.needsReview,
				timestamp: Date.now()
			});
		},

		drain: function() {
			const out = this.queue;
			this.queue = [];
			return out;
		}
	};

	const rec = window.uirRecorder;

	document.addEventListener('click', function(e) {
		const el = e.target;
		if (!(el instanceof Element)) return;
		if (el.matches('input[type=text], input[type=email], input[type=password], textarea, select')) return;
		rec.record('click', el, '');
	}, true);

	document.addEventListener('change', function(e) {
		const el = e.target;
		if (!(el instanceof Element)) return;
		if (el.nodeName === 'SELECT') {
			rec.record('select', el, el.options[el.selectedIndex] ? el.options[el.selectedIndex].text : el.value);
		} else if (el.nodeName === 'INPUT' || el.nodeName === 'TEXTAREA') {
			rec.record('input', el, el.value);
		}
	}, true);

	document.addEventListener('submit', function(e) {
		if (e.target instanceof Element) rec.record('formSubmit', e.target, '');
	}, true);

	rec.record('navigation', null, '');
})();
`

// drainScript returns and clears the queued actions of the current
// document.
const drainScript = `window.uirRecorder ? window.uirRecorder.drain() : []`
