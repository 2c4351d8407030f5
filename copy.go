package dbuswire

// A fixup is a deferred correction to an array length field that was
// skipped over before the edited value was reached.
type fixup struct {
	lenPos int
	length uint32
}

// WriteReader writes all the values remaining in r's current
// container to w, and advances r past them.
//
// On error, w and its buffers are unchanged, and r is restored to its
// original position.
func (w *Writer) WriteReader(r *Reader) error {
	r.mustHaveValues()
	var (
		origW    = *w
		origR    = *r
		dataLen  = w.data.Len()
		sigLen   int
		ownedSig = w.sig != nil && !w.expect
	)
	if ownedSig {
		sigLen = w.sig.Len()
	}
	if err := w.copyFrom(r, nil, 0, nil, false); err != nil {
		w.data.remove(origW.pos, w.data.Len()-dataLen)
		if ownedSig {
			w.sig.remove(origW.sigPos, w.sig.Len()-sigLen)
		}
		*w = origW
		*r = origR
		return err
	}
	return nil
}

// copyFrom writes the values remaining in r's current container to
// w.
//
// If target is non-nil, w is disabled until r has moved past target,
// at which point w is enabled and copies the rest. newLen is the
// encoded length of the value that replaces target, and any array
// whose length field was skipped while disabled but whose content
// extends past target gets an entry in fixups.
func (w *Writer) copyFrom(r *Reader, target *Reader, newLen int, fixups *[]fixup, insideTarget bool) error {
	for t := r.CurrentType(); t != TypeInvalid; t = r.CurrentType() {
		isTarget := target != nil && r.sameValue(target)
		if t.IsContainer() {
			if err := w.copyContainer(r, t, target, newLen, fixups, insideTarget || isTarget); err != nil {
				return err
			}
		} else if err := w.WriteBasic(t, r.ReadBasic()); err != nil {
			return err
		}
		r.Next()
		if target != nil && !w.enabled && !insideTarget && r.pos > target.pos {
			w.enabled = true
		}
	}
	return nil
}

func (w *Writer) copyContainer(r *Reader, t Type, target *Reader, newLen int, fixups *[]fixup, insideTarget bool) error {
	sub := r.Recurse()
	var contained []byte
	if t == TypeArray || t == TypeVariant {
		contained = sub.currentSig()
	}
	wasEnabled := w.enabled
	sw, err := w.recurse(t, contained, false)
	if err != nil {
		return err
	}
	if err := sw.copyFrom(&sub, target, newLen, fixups, insideTarget); err != nil {
		return err
	}
	if t == TypeArray && target != nil && !wasEnabled && sw.enabled {
		// The array starts before target and ends after it. Its new
		// length is the unchanged content before target, the
		// replacement, and whatever sw wrote after the replacement.
		n := (target.pos - sub.arrayStart) + newLen + (sw.pos - sw.arrayStart)
		if old := int(readUint32(r.data, sub.arrayLenPos, r.order)); old != n {
			*fixups = append(*fixups, fixup{sub.arrayLenPos, uint32(n)})
		}
	}
	return w.Unrecurse(sw)
}
